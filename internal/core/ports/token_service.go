package ports

import "github.com/taskhive/task-api/internal/core/domain"

// TokenService issues and verifies signed, time-bound identity
// assertions. Verify is a pure function of the token and the shared
// secret; it never consults a store.
type TokenService interface {
	Issue(subjectID, role string) (string, error)
	Verify(token string) (domain.Identity, error)
}
