package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/core/ports"
)

// AdminHandler serves the admin-only platform endpoints.
type AdminHandler struct {
	stats ports.StatsService
}

func NewAdminHandler(stats ports.StatsService) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.stats.Stats(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, successResponse{Success: true, Data: stats})
}
