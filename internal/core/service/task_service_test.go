package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	tasks      map[string]*domain.Task
	nextID     int
	lastFilter ports.ListTasksFilter
	listCalls  int
	failWith   error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	return &clone
}

func (r *stubTaskRepo) Insert(_ context.Context, t *domain.Task) (*domain.Task, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.nextID++
	created := cloneTask(t)
	created.ID = "task_" + strconv.Itoa(r.nextID)
	r.tasks[created.ID] = cloneTask(created)
	return created, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *stubTaskRepo) Update(_ context.Context, id string, upd ports.TaskUpdate) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	t.UpdatedAt = time.Now().UTC()
	return cloneTask(t), nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// List applies the same filters the real Mongo repo would use.
func (r *stubTaskRepo) List(_ context.Context, f ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	r.listCalls++
	r.lastFilter = f
	if r.failWith != nil {
		return nil, 0, r.failWith
	}

	var matched []*domain.Task
	for _, t := range r.tasks {
		if f.OwnerID != "" && t.Owner != f.OwnerID {
			continue
		}
		if f.Status != "" && string(t.Status) != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, cloneTask(t))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.Task{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubTaskRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.tasks)), nil
}

// ---------------------------------------------------------------------------
// Recording stub cache
// ---------------------------------------------------------------------------

type stubCache struct {
	entries     map[string]*ports.CachedTaskList
	lastSetKey  string
	lastSetTTL  time.Duration
	invalidated int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*ports.CachedTaskList)}
}

func (c *stubCache) Get(_ context.Context, key string) (*ports.CachedTaskList, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *stubCache) Set(_ context.Context, key string, value *ports.CachedTaskList, ttl time.Duration) {
	c.entries[key] = value
	c.lastSetKey = key
	c.lastSetTTL = ttl
}

func (c *stubCache) Invalidate(_ context.Context) {
	c.entries = make(map[string]*ports.CachedTaskList)
	c.invalidated++
}

func newTaskService(repo *stubTaskRepo, cache ports.ListCache) *TaskService {
	return NewTaskService(repo, cache, time.Minute, zerolog.Nop())
}

var (
	alice = ports.Caller{ID: "user_alice", Role: domain.RoleUser}
	bob   = ports.Caller{ID: "user_bob", Role: domain.RoleUser}
	root  = ports.Caller{ID: "user_root", Role: domain.RoleAdmin}
)

func seedTask(t *testing.T, svc *TaskService, caller ports.Caller, title string) *domain.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), caller, ports.CreateTaskInput{Title: title})
	if err != nil {
		t.Fatalf("seed task %q: %v", title, err)
	}
	return task
}

// ---------------------------------------------------------------------------
// ScopeFilter
// ---------------------------------------------------------------------------

func TestScopeFilter_NonAdminIsOwnerScoped(t *testing.T) {
	f := ScopeFilter(alice, ports.ListTasksInput{})
	if f.OwnerID != alice.ID {
		t.Fatalf("expected owner scope %q, got %q", alice.ID, f.OwnerID)
	}
}

func TestScopeFilter_AdminIsUnscoped(t *testing.T) {
	f := ScopeFilter(root, ports.ListTasksInput{})
	if f.OwnerID != "" {
		t.Fatalf("expected no owner scope for admin, got %q", f.OwnerID)
	}
}

func TestScopeFilter_Clamps(t *testing.T) {
	cases := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, 10},
		{"negative page", -3, 5, 1, 5},
		{"zero page", 0, 25, 1, 25},
		{"limit above max", 2, 1000, 2, 100},
		{"limit below min", 1, -1, 1, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := ScopeFilter(alice, ports.ListTasksInput{Page: tc.page, Limit: tc.limit})
			if f.Page != tc.wantPage {
				t.Fatalf("page: expected %d, got %d", tc.wantPage, f.Page)
			}
			if f.Limit != tc.wantLimit {
				t.Fatalf("limit: expected %d, got %d", tc.wantLimit, f.Limit)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// CRUD + ownership
// ---------------------------------------------------------------------------

func TestTaskService_Create_ForcesOwnerAndDefaults(t *testing.T) {
	svc := newTaskService(newStubTaskRepo(), newStubCache())

	task, err := svc.Create(context.Background(), alice, ports.CreateTaskInput{Title: "T1"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if task.Owner != alice.ID {
		t.Fatalf("expected owner %q, got %q", alice.ID, task.Owner)
	}
	if task.Status != domain.StatusTodo {
		t.Fatalf("expected default status todo, got %q", task.Status)
	}
}

func TestTaskService_GetByID_DistinguishesNotFoundAndForbidden(t *testing.T) {
	svc := newTaskService(newStubTaskRepo(), newStubCache())
	task := seedTask(t, svc, alice, "alice's task")

	if _, err := svc.GetByID(context.Background(), bob, "task_missing"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), bob, task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), alice, task.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), root, task.ID); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}
}

func TestTaskService_Update_PartialAndOwnership(t *testing.T) {
	svc := newTaskService(newStubTaskRepo(), newStubCache())
	task := seedTask(t, svc, alice, "original title")

	status := domain.StatusDone
	if _, err := svc.Update(context.Background(), bob, task.ID, ports.TaskUpdate{Status: &status}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	before := task.UpdatedAt
	updated, err := svc.Update(context.Background(), alice, task.ID, ports.TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Status != domain.StatusDone {
		t.Fatalf("expected status done, got %q", updated.Status)
	}
	if updated.Title != "original title" {
		t.Fatalf("unspecified field was touched: %q", updated.Title)
	}
	if updated.UpdatedAt.Before(before) {
		t.Fatalf("updated_at went backwards: %v < %v", updated.UpdatedAt, before)
	}

	got, err := svc.GetByID(context.Background(), alice, task.ID)
	if err != nil {
		t.Fatalf("GetByID after update failed: %v", err)
	}
	if got.Status != domain.StatusDone {
		t.Fatalf("update not persisted: %q", got.Status)
	}
}

func TestTaskService_Delete(t *testing.T) {
	svc := newTaskService(newStubTaskRepo(), newStubCache())
	task := seedTask(t, svc, alice, "T1")

	if err := svc.Delete(context.Background(), bob, task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
	if err := svc.Delete(context.Background(), alice, task.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), alice, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on second delete, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// List scoping + pagination
// ---------------------------------------------------------------------------

func TestTaskService_List_ScopesByOwner(t *testing.T) {
	repo := newStubTaskRepo()
	svc := newTaskService(repo, newStubCache())
	seedTask(t, svc, alice, "alice 1")
	seedTask(t, svc, alice, "alice 2")
	seedTask(t, svc, bob, "bob 1")

	result, err := svc.List(context.Background(), alice, ports.ListTasksInput{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if result.Meta.Total != 2 {
		t.Fatalf("expected 2 tasks for alice, got %d", result.Meta.Total)
	}
	for _, item := range result.Items {
		if item.Owner != alice.ID {
			t.Fatalf("leaked task owned by %q", item.Owner)
		}
	}

	adminResult, err := svc.List(context.Background(), root, ports.ListTasksInput{})
	if err != nil {
		t.Fatalf("admin List returned error: %v", err)
	}
	if adminResult.Meta.Total != 3 {
		t.Fatalf("expected 3 tasks for admin, got %d", adminResult.Meta.Total)
	}
}

func TestTaskService_List_PaginationMeta(t *testing.T) {
	repo := newStubTaskRepo()
	svc := newTaskService(repo, newStubCache())
	for i := 0; i < 25; i++ {
		seedTask(t, svc, alice, "task "+strconv.Itoa(i))
	}

	result, err := svc.List(context.Background(), alice, ports.ListTasksInput{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(result.Items) != 10 {
		t.Fatalf("expected 10 items on page 2, got %d", len(result.Items))
	}
	if result.Meta.Total != 25 || result.Meta.TotalPages != 3 {
		t.Fatalf("unexpected meta: %+v", result.Meta)
	}

	// limit above the cap is clamped before reaching the repo.
	if _, err := svc.List(context.Background(), alice, ports.ListTasksInput{Limit: 1000}); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if repo.lastFilter.Limit != 100 {
		t.Fatalf("expected clamped limit 100, got %d", repo.lastFilter.Limit)
	}
}

// ---------------------------------------------------------------------------
// Cache behaviour
// ---------------------------------------------------------------------------

func TestTaskService_List_ReadThrough(t *testing.T) {
	repo := newStubTaskRepo()
	cache := newStubCache()
	svc := newTaskService(repo, cache)
	seedTask(t, svc, alice, "T1")

	first, err := svc.List(context.Background(), alice, ports.ListTasksInput{})
	if err != nil {
		t.Fatalf("first List returned error: %v", err)
	}
	if first.Source != ports.SourceDB {
		t.Fatalf("expected source db on miss, got %q", first.Source)
	}
	if cache.lastSetTTL != time.Minute {
		t.Fatalf("expected configured TTL on set, got %v", cache.lastSetTTL)
	}

	second, err := svc.List(context.Background(), alice, ports.ListTasksInput{})
	if err != nil {
		t.Fatalf("second List returned error: %v", err)
	}
	if second.Source != ports.SourceCache {
		t.Fatalf("expected source cache on hit, got %q", second.Source)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected a single repo query, got %d", repo.listCalls)
	}
	if len(second.Items) != len(first.Items) || second.Meta != first.Meta {
		t.Fatalf("cached page differs from live page")
	}
}

func TestTaskService_List_CacheKeyIsCallerScoped(t *testing.T) {
	repo := newStubTaskRepo()
	cache := newStubCache()
	svc := newTaskService(repo, cache)
	seedTask(t, svc, alice, "alice 1")
	seedTask(t, svc, bob, "bob 1")

	if _, err := svc.List(context.Background(), alice, ports.ListTasksInput{}); err != nil {
		t.Fatalf("alice List returned error: %v", err)
	}
	aliceKey := cache.lastSetKey

	bobResult, err := svc.List(context.Background(), bob, ports.ListTasksInput{})
	if err != nil {
		t.Fatalf("bob List returned error: %v", err)
	}
	if cache.lastSetKey == aliceKey {
		t.Fatalf("two callers shared cache key %q", aliceKey)
	}
	if bobResult.Source != ports.SourceDB {
		t.Fatalf("bob must not hit alice's cache entry")
	}
	for _, item := range bobResult.Items {
		if item.Owner != bob.ID {
			t.Fatalf("leaked task owned by %q", item.Owner)
		}
	}
}

func TestTaskService_List_CacheKeyEscapesFilterValues(t *testing.T) {
	repo := newStubTaskRepo()
	cache := newStubCache()
	svc := newTaskService(repo, cache)
	seedTask(t, svc, alice, "milk run")

	// Crafted so a naive "s=<status>&q=<search>" concatenation would
	// produce the same key for both queries.
	if _, err := svc.List(context.Background(), alice, ports.ListTasksInput{Status: "todo&q=milk"}); err != nil {
		t.Fatalf("first List returned error: %v", err)
	}
	firstKey := cache.lastSetKey

	second, err := svc.List(context.Background(), alice, ports.ListTasksInput{Status: "todo", Search: "milk&q="})
	if err != nil {
		t.Fatalf("second List returned error: %v", err)
	}
	if cache.lastSetKey == firstKey {
		t.Fatalf("distinct queries aliased cache key %q", firstKey)
	}
	if second.Source != ports.SourceDB {
		t.Fatalf("second query must not be served from the first query's entry")
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected both queries to reach the repo, got %d calls", repo.listCalls)
	}
}

func TestTaskService_Mutations_Invalidate(t *testing.T) {
	repo := newStubTaskRepo()
	cache := newStubCache()
	svc := newTaskService(repo, cache)
	task := seedTask(t, svc, alice, "T1")

	if _, err := svc.List(context.Background(), alice, ports.ListTasksInput{}); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(cache.entries) == 0 {
		t.Fatalf("expected a cached entry")
	}

	status := domain.StatusDone
	if _, err := svc.Update(context.Background(), alice, task.ID, ports.TaskUpdate{Status: &status}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(cache.entries) != 0 {
		t.Fatalf("update did not invalidate the cache")
	}

	// The next list sees the post-mutation state, not a stale page.
	result, err := svc.List(context.Background(), alice, ports.ListTasksInput{})
	if err != nil {
		t.Fatalf("List after update returned error: %v", err)
	}
	if result.Source != ports.SourceDB {
		t.Fatalf("expected source db after invalidation, got %q", result.Source)
	}
	if result.Items[0].Status != domain.StatusDone {
		t.Fatalf("stale read after write: %q", result.Items[0].Status)
	}

	if err := svc.Delete(context.Background(), alice, task.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(cache.entries) != 0 {
		t.Fatalf("delete did not invalidate the cache")
	}
}

func TestTaskService_NilCacheDefaultsToNoop(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewTaskService(repo, nil, 0, zerolog.Nop())
	seedTask(t, svc, alice, "T1")

	for i := 0; i < 2; i++ {
		result, err := svc.List(context.Background(), alice, ports.ListTasksInput{})
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if result.Source != ports.SourceDB {
			t.Fatalf("expected every list to come from db, got %q", result.Source)
		}
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected 2 repo queries with noop cache, got %d", repo.listCalls)
	}
}
