package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhive/task-api/internal/api/metrics"
	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	defaultCacheTTL = 120 * time.Second
)

// TaskService implements ownership-scoped task use cases with a
// read-through list cache.
type TaskService struct {
	repo     ports.TaskRepository
	cache    ports.ListCache
	cacheTTL time.Duration
	logger   zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, cache ports.ListCache, cacheTTL time.Duration, logger zerolog.Logger) *TaskService {
	if cache == nil {
		cache = ports.NoopListCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &TaskService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ScopeFilter turns a caller plus raw query parameters into the
// effective repository filter. Non-admin callers are unconditionally
// restricted to their own tasks; page and limit are clamped so a
// client can never force an unbounded scan.
func ScopeFilter(caller ports.Caller, input ports.ListTasksInput) ports.ListTasksFilter {
	f := ports.ListTasksFilter{
		Status: input.Status,
		Search: input.Search,
		Page:   input.Page,
		Limit:  input.Limit,
	}

	if caller.Role != domain.RoleAdmin {
		f.OwnerID = caller.ID
	}

	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}

	return f
}

// listCacheKey builds the cache key for a scoped list query. The
// caller's role and id are part of the key so cached pages can never
// leak across callers; filter values are url-encoded so two distinct
// queries can never collapse into the same key.
func listCacheKey(caller ports.Caller, f ports.ListTasksFilter) string {
	q := url.Values{}
	q.Set("p", strconv.Itoa(f.Page))
	q.Set("l", strconv.Itoa(f.Limit))
	q.Set("s", f.Status)
	q.Set("q", f.Search)
	return fmt.Sprintf("tasks:%s:%s:%s", caller.Role, caller.ID, q.Encode())
}

func (s *TaskService) List(ctx context.Context, caller ports.Caller, input ports.ListTasksInput) (*ports.ListTasksResult, error) {
	filter := ScopeFilter(caller, input)
	key := listCacheKey(caller, filter)

	if cached, ok := s.cache.Get(ctx, key); ok {
		metrics.CacheResultsTotal.WithLabelValues("hit").Inc()
		return &ports.ListTasksResult{Items: cached.Data, Meta: cached.Meta, Source: ports.SourceCache}, nil
	}
	metrics.CacheResultsTotal.WithLabelValues("miss").Inc()

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	meta := ports.Pagination{
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}

	s.cache.Set(ctx, key, &ports.CachedTaskList{Data: items, Meta: meta}, s.cacheTTL)

	return &ports.ListTasksResult{Items: items, Meta: meta, Source: ports.SourceDB}, nil
}

// GetByID returns a task. It is not hidden from non-owners: a task
// that exists but belongs to someone else fails with ErrForbidden
// rather than ErrTaskNotFound.
func (s *TaskService) GetByID(ctx context.Context, caller ports.Caller, id string) (*domain.Task, error) {
	return s.findOwned(ctx, caller, id)
}

func (s *TaskService) Create(ctx context.Context, caller ports.Caller, input ports.CreateTaskInput) (*domain.Task, error) {
	status := input.Status
	if status == "" {
		status = domain.StatusTodo
	}

	now := time.Now().UTC()
	task := &domain.Task{
		Owner:       caller.ID, // never trust client-supplied ownership
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Insert(ctx, task)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info().Str("task_id", created.ID).Str("owner", created.Owner).Msg("task created")
	metrics.TaskMutationsTotal.WithLabelValues("create").Inc()

	return created, nil
}

func (s *TaskService) Update(ctx context.Context, caller ports.Caller, id string, upd ports.TaskUpdate) (*domain.Task, error) {
	if _, err := s.findOwned(ctx, caller, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	metrics.TaskMutationsTotal.WithLabelValues("update").Inc()

	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, caller ports.Caller, id string) error {
	if _, err := s.findOwned(ctx, caller, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	metrics.TaskMutationsTotal.WithLabelValues("delete").Inc()

	return nil
}

// findOwned loads a task and enforces the ownership rule shared by
// GetByID, Update and Delete.
func (s *TaskService) findOwned(ctx context.Context, caller ports.Caller, id string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && task.Owner != caller.ID {
		return nil, domain.ErrForbidden
	}
	return task, nil
}

// invalidate drops all cached list pages. Runs synchronously before a
// mutation reports success; the cache is advisory so failures are
// absorbed by the cache implementation itself.
func (s *TaskService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx)
}
