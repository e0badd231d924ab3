// Package metrics defines and registers all custom Prometheus metrics
// for the task API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskapi"

// CacheResultsTotal counts list-cache lookups by outcome.
// Label:
//   - result: "hit" (served from cache) or "miss" (live query executed)
var CacheResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_results_total",
		Help:      "Total number of task list cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// CacheErrorsTotal counts cache operations that failed and were
// degraded to no-ops.
// Label:
//   - op: "get", "set" or "invalidate"
var CacheErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_errors_total",
		Help:      "Total number of cache operations swallowed after a backend error.",
	},
	[]string{"op"},
)

// TaskMutationsTotal counts successful task mutations.
// Label:
//   - action: "create", "update" or "delete"
var TaskMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_mutations_total",
		Help:      "Total number of successful task mutations, by action.",
	},
	[]string{"action"},
)

// AuthEventsTotal counts successful authentication events.
// Labels:
//   - event: "register" or "login"
//   - role: the role of the account involved
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of successful registrations and logins, by role.",
	},
	[]string{"event", "role"},
)
