package ports

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
)

// ListTasksFilter carries the effective query for listing tasks.
// OwnerID is enforced by the service layer: empty means unscoped
// (admin), non-empty restricts results to that owner.
type ListTasksFilter struct {
	OwnerID string
	Status  string // optional: exact status match
	Search  string // optional: case-insensitive substring match on title
	Page    int    // 1-based
	Limit   int    // rows per page, clamped by the service
}

// TaskUpdate holds the mutable task fields for a partial update.
// Nil pointers leave the stored value untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Insert(ctx context.Context, t *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// Update applies the non-nil fields of upd and refreshes updated_at.
	Update(ctx context.Context, id string, upd TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	// List returns a page of tasks sorted by creation time descending,
	// plus the total count matching the filter.
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, int64, error)
	Count(ctx context.Context) (int64, error)
}
