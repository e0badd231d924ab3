package ports

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
)

// AuthResult is returned by the registration and login flows.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	// Register creates a regular user account and returns a fresh token.
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	// RegisterAdmin creates an admin account when bootstrapKey matches
	// the configured bootstrap secret.
	RegisterAdmin(ctx context.Context, name, email, password, bootstrapKey string) (*AuthResult, error)
	// Login verifies credentials. Unknown email and wrong password fail
	// with the same error so callers cannot enumerate accounts.
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}
