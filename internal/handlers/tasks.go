package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ytakahashi/todo-list/internal/models"
	"github.com/ytakahashi/todo-list/internal/services"
)

type TaskHandler struct {
	store *services.TaskStore
}

func NewTaskHandler(store *services.TaskStore) *TaskHandler {
	return &TaskHandler{
		store: store,
	}
}

type taskRequest struct {
	Title   string `json:"title"`
	DueDate string `json:"dueDate"`
}

func (h *TaskHandler) Register(e *echo.Echo) {
	e.GET("/tasks", h.List)
	e.POST("/tasks", h.Create)
	e.POST("/tasks/clear-completed", h.ClearCompleted)
	e.POST("/tasks/:id/toggle", h.Toggle)
	e.PUT("/tasks/:id", h.Update)
	e.DELETE("/tasks/:id", h.Delete)
	e.GET("/export", h.Export)
	e.POST("/import", h.Import)
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// GET /tasks?filter=all|active|completed
func (h *TaskHandler) List(c echo.Context) error {
	filter, err := models.ParseFilter(c.QueryParam("filter"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	view, err := services.Project(h.store.Tasks(), filter)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

// POST /tasks
func (h *TaskHandler) Create(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid json")
	}

	task, err := h.store.Add(c.Request().Context(), req.Title, req.DueDate)
	if err != nil {
		log.Printf("Failed to add task: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "failed to add task")
	}
	if task == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, task)
}

// POST /tasks/:id/toggle
func (h *TaskHandler) Toggle(c echo.Context) error {
	task, err := h.store.ToggleComplete(c.Request().Context(), c.Param("id"))
	if err != nil {
		log.Printf("Failed to toggle task %s: %v", c.Param("id"), err)
		return errorJSON(c, http.StatusInternalServerError, "failed to toggle task")
	}
	if task == nil {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	return c.JSON(http.StatusOK, task)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid json")
	}

	task, err := h.store.Edit(c.Request().Context(), c.Param("id"), req.Title, strings.TrimSpace(req.DueDate))
	if err != nil {
		if errors.Is(err, services.ErrInvalidDueDate) {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		log.Printf("Failed to edit task %s: %v", c.Param("id"), err)
		return errorJSON(c, http.StatusInternalServerError, "failed to edit task")
	}
	if task == nil {
		return errorJSON(c, http.StatusNotFound, "task not found")
	}
	return c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c echo.Context) error {
	if _, err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		log.Printf("Failed to delete task %s: %v", c.Param("id"), err)
		return errorJSON(c, http.StatusInternalServerError, "failed to delete task")
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /tasks/clear-completed
func (h *TaskHandler) ClearCompleted(c echo.Context) error {
	removed, err := h.store.ClearCompleted(c.Request().Context())
	if err != nil {
		log.Printf("Failed to clear completed tasks: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "failed to clear completed tasks")
	}
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

// GET /export
func (h *TaskHandler) Export(c echo.Context) error {
	data, err := h.store.Export()
	if err != nil {
		log.Printf("Failed to export tasks: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "failed to export tasks")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", services.ExportFilename))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// POST /import accepts either a multipart "file" field or the raw JSON body.
func (h *TaskHandler) Import(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		imported int
		err      error
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, ferr := c.FormFile("file")
		if ferr != nil {
			return errorJSON(c, http.StatusBadRequest, "file is required")
		}
		f, ferr := fh.Open()
		if ferr != nil {
			return errorJSON(c, http.StatusBadRequest, "failed to open file")
		}
		defer f.Close()
		imported, err = h.store.ImportFrom(ctx, f)
	} else {
		imported, err = h.store.ImportFrom(ctx, c.Request().Body)
	}

	if err != nil {
		if errors.Is(err, services.ErrInvalidFormat) {
			return errorJSON(c, http.StatusBadRequest, "Failed to import: "+err.Error())
		}
		log.Printf("Failed to import tasks: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "failed to import tasks")
	}
	return c.JSON(http.StatusOK, map[string]int{"imported": imported})
}
