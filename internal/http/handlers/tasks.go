package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/gin-gonic/gin"
)

type TasksService interface {
	ListForUser(ctx context.Context, actingUser string) ([]task.WithProject, error)
	ListForProject(ctx context.Context, actingUser, projectID string) ([]task.Task, error)
	Create(ctx context.Context, actingUser string, req task.CreateRequest) (task.Task, error)
	Update(ctx context.Context, actingUser, taskID string, patch task.Patch) (task.Task, error)
	Delete(ctx context.Context, actingUser, taskID string) (string, error)
}

type TasksHandler struct {
	svc TasksService
}

func NewTasksHandler(svc TasksService) *TasksHandler {
	return &TasksHandler{svc: svc}
}

// GET /api/tasks
func (h *TasksHandler) List(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.svc.ListForUser(cctx, userID)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list tasks")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

// GET /api/tasks/project/:projectId
func (h *TasksHandler) ListForProject(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	// a malformed id cannot name a project, so the list is empty
	projectID := ctx.Param("projectId")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.svc.ListForProject(cctx, userID, projectID)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list project tasks")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

// POST /api/tasks
func (h *TasksHandler) Create(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	var req task.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.svc.Create(cctx, userID, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not create task")
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

// PUT /api/tasks/:id
func (h *TasksHandler) Update(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	var patch task.Patch
	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.svc.Update(cctx, userID, id, patch)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

// DELETE /api/tasks/:id
func (h *TasksHandler) Delete(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	deleted, err := h.svc.Delete(cctx, userID, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not delete task")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"id": deleted})
}
