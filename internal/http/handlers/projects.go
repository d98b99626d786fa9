package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProjectsService interface {
	List(ctx context.Context, actingUser string) ([]project.Project, error)
	Get(ctx context.Context, actingUser, projectID string) (project.Project, error)
	Create(ctx context.Context, actingUser string, req project.CreateRequest) (project.Project, error)
	Update(ctx context.Context, actingUser, projectID string, patch project.Patch) (project.Project, error)
	Delete(ctx context.Context, actingUser, projectID string) (string, error)
}

type ProjectsHandler struct {
	svc ProjectsService
}

func NewProjectsHandler(svc ProjectsService) *ProjectsHandler {
	return &ProjectsHandler{svc: svc}
}

// GET /api/projects
func (h *ProjectsHandler) List(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.svc.List(cctx, userID)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list projects")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// GET /api/projects/:id
func (h *ProjectsHandler) Get(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.svc.Get(cctx, userID, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch project")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

// POST /api/projects
func (h *ProjectsHandler) Create(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	var req project.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.svc.Create(cctx, userID, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not create project")
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

// PUT /api/projects/:id
func (h *ProjectsHandler) Update(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	var patch project.Patch
	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.svc.Update(cctx, userID, id, patch)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update project")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// DELETE /api/projects/:id
func (h *ProjectsHandler) Delete(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	// cascade runs in one transaction
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	deleted, err := h.svc.Delete(cctx, userID, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not delete project")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"id": deleted})
}

// actingUser reads the identity set by RequireAuth, answering 401 when absent.
func actingUser(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok || id == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return "", false
	}
	return id, true
}
