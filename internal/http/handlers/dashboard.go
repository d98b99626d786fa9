package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
)

type DashboardService interface {
	Stats(ctx context.Context, actingUser string) (service.Stats, error)
}

type DashboardHandler struct {
	svc DashboardService
}

func NewDashboardHandler(svc DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GET /api/dashboard/stats
func (h *DashboardHandler) Stats(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	st, err := h.svc.Stats(cctx, userID)
	if err != nil {
		RespondServiceError(ctx, err, "Could not load dashboard stats")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, st)
}
