package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

// userContextKey holds the resolved *domain.User on the echo context.
const userContextKey = "user"

// Auth resolves the caller from a bearer token and injects the user
// into the context. Missing header, bad scheme, invalid or expired
// token, and unknown subject all collapse into a uniform
// 401 so token state is not leaked to clients.
func Auth(tokens ports.TokenService, users ports.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			identity, err := tokens.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication token")
			}

			// The subject must still exist; a token can outlive its account.
			user, err := users.FindByID(c.Request().Context(), identity.SubjectID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication token")
				}
				// Store outage is not an authentication failure.
				return err
			}

			c.Set(userContextKey, user)

			return next(c)
		}
	}
}

// UserFrom extracts the authenticated user injected by Auth. The
// second return is false when the middleware has not run.
func UserFrom(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(userContextKey).(*domain.User)
	return user, ok
}

// CallerFrom reduces the authenticated user to the id+role pair the
// service layer scopes by.
func CallerFrom(c echo.Context) (ports.Caller, error) {
	user, ok := UserFrom(c)
	if !ok {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Caller{ID: user.ID, Role: user.Role}, nil
}
