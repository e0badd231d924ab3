package ports

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
)

// Caller identifies the authenticated user a repository operation runs
// on behalf of. Scoping decisions derive from it alone.
type Caller struct {
	ID   string
	Role string
}

// ListTasksInput carries the raw query parameters for the list
// endpoint, before scoping and clamping.
type ListTasksInput struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// List result provenance values.
const (
	SourceCache = "cache"
	SourceDB    = "db"
)

// ListTasksResult is one page of tasks plus where it came from.
type ListTasksResult struct {
	Items  []*domain.Task
	Meta   Pagination
	Source string
}

// CreateTaskInput carries the fields a caller may set at creation.
// The owner is always the caller; client-supplied ownership is ignored.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
}

// TaskService defines the ownership-scoped use cases over tasks.
type TaskService interface {
	List(ctx context.Context, caller Caller, input ListTasksInput) (*ListTasksResult, error)
	GetByID(ctx context.Context, caller Caller, id string) (*domain.Task, error)
	Create(ctx context.Context, caller Caller, input CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, caller Caller, id string, upd TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, caller Caller, id string) error
}
