package handler

import (
	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

// --- Envelopes ---

// successResponse is the canonical envelope for all successful responses.
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// listResponse is the envelope for the task list endpoint, carrying
// pagination meta and the result provenance ("cache" or "db").
type listResponse struct {
	Success bool             `json:"success"`
	Source  string           `json:"source"`
	Data    []*domain.Task   `json:"data"`
	Meta    ports.Pagination `json:"meta"`
}

// --- Auth requests / responses ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// --- Task requests ---

// createTaskRequest deliberately has no owner field; ownership always
// derives from the authenticated caller.
type createTaskRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Status      string `json:"status"      validate:"omitempty,oneof=todo in-progress done"`
}

// updateTaskRequest carries the allow-listed mutable fields. Pointers
// distinguish "absent" from "set to zero value" for partial updates.
type updateTaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Status      *string `json:"status"      validate:"omitnil,oneof=todo in-progress done"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
