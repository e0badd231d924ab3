package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/api/middleware"
	"github.com/taskhive/task-api/internal/core/ports"
)

// bootstrapKeyHeader carries the shared secret that authorises admin
// registration.
const bootstrapKeyHeader = "x-admin-bootstrap-key"

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a regular user account and returns a fresh token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: "User registered successfully",
		Data:    authResponse{Token: result.Token, User: toUserResponse(result.User)},
	})
}

// RegisterAdmin creates an admin account; the caller must present the
// bootstrap key header.
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	key := c.Request().Header.Get(bootstrapKeyHeader)
	result, err := h.authService.RegisterAdmin(c.Request().Context(), req.Name, req.Email, req.Password, key)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: "Admin registered successfully",
		Data:    authResponse{Token: result.Token, User: toUserResponse(result.User)},
	})
}

// Login authenticates a user and returns a token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "Login successful",
		Data:    authResponse{Token: result.Token, User: toUserResponse(result.User)},
	})
}

// Me returns the authenticated caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	return c.JSON(http.StatusOK, successResponse{
		Success: true,
		Data:    toUserResponse(user),
	})
}
