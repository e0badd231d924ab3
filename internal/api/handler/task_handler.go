package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/api/middleware"
	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List handles GET /api/v1/tasks. Non-admin callers only ever see
// their own tasks, whatever query they send.
func (h *TaskHandler) List(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	input := ports.ListTasksInput{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	}

	result, err := h.service.List(c.Request().Context(), caller, input)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listResponse{
		Success: true,
		Source:  result.Source,
		Data:    result.Items,
		Meta:    result.Meta,
	})
}

// Get handles GET /api/v1/tasks/:id.
func (h *TaskHandler) Get(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	task, err := h.service.GetByID(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, successResponse{Success: true, Data: task})
}

// Create handles POST /api/v1/tasks. The owner is always the caller.
func (h *TaskHandler) Create(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.service.Create(c.Request().Context(), caller, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: "Task created",
		Data:    task,
	})
}

// Update handles PUT /api/v1/tasks/:id with partial update semantics:
// only fields present in the body are touched.
func (h *TaskHandler) Update(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	upd := ports.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		upd.Status = &status
	}

	task, err := h.service.Update(c.Request().Context(), caller, c.Param("id"), upd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "Task updated",
		Data:    task,
	})
}

// Delete handles DELETE /api/v1/tasks/:id.
func (h *TaskHandler) Delete(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: "Task deleted",
	})
}

// queryInt parses an integer query parameter, returning 0 for absent
// or malformed values; the service clamps to valid ranges.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}
