package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/task-api/internal/api/metrics"
	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

const bcryptCost = 12

// AuthService implements registration, admin bootstrap and login.
type AuthService struct {
	repo         ports.UserRepository
	tokens       ports.TokenService
	bootstrapKey string
	logger       zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenService, bootstrapKey string, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, bootstrapKey: bootstrapKey, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*ports.AuthResult, error) {
	return s.register(ctx, name, email, password, domain.RoleUser)
}

// RegisterAdmin creates an admin account. The caller must present the
// configured bootstrap key; an unconfigured key rejects everything.
func (s *AuthService) RegisterAdmin(ctx context.Context, name, email, password, bootstrapKey string) (*ports.AuthResult, error) {
	if s.bootstrapKey == "" || subtle.ConstantTimeCompare([]byte(bootstrapKey), []byte(s.bootstrapKey)) != 1 {
		return nil, domain.ErrBootstrapKeyInvalid
	}
	return s.register(ctx, name, email, password, domain.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, name, email, password, role string) (*ports.AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(created.ID, created.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	metrics.AuthEventsTotal.WithLabelValues("register", created.Role).Inc()

	return &ports.AuthResult{Token: token, User: created}, nil
}

// Login verifies credentials and issues a token. Unknown email and bad
// password collapse into the same error so accounts cannot be
// enumerated.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	metrics.AuthEventsTotal.WithLabelValues("login", user.Role).Inc()

	return &ports.AuthResult{Token: token, User: user}, nil
}

// NormalizeEmail lowercases and trims an email so uniqueness checks and
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
