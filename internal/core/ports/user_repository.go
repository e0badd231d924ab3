package ports

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
)

// UserRepository defines persistence operations for user identities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Count returns the number of users, optionally restricted to a role
	// (empty role counts all users).
	Count(ctx context.Context, role string) (int64, error)
}
