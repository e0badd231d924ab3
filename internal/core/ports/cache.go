package ports

import (
	"context"
	"time"

	"github.com/taskhive/task-api/internal/core/domain"
)

// CachedTaskList is the value memoized for a list query: the page of
// tasks and its pagination meta.
type CachedTaskList struct {
	Data []*domain.Task `json:"data"`
	Meta Pagination     `json:"meta"`
}

// ListCache memoizes task list results. The cache is advisory: every
// implementation must treat backend failures as misses and never
// surface them, so correctness never depends on the cache being
// reachable.
type ListCache interface {
	Get(ctx context.Context, key string) (*CachedTaskList, bool)
	Set(ctx context.Context, key string, value *CachedTaskList, ttl time.Duration)
	// Invalidate drops every cached list result (coarse invalidation).
	Invalidate(ctx context.Context)
}

// NoopListCache is the null object used when no cache backend is
// configured. Every lookup is a miss.
type NoopListCache struct{}

func (NoopListCache) Get(context.Context, string) (*CachedTaskList, bool) { return nil, false }

func (NoopListCache) Set(context.Context, string, *CachedTaskList, time.Duration) {}

func (NoopListCache) Invalidate(context.Context) {}
