package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
)

type UsersService interface {
	Register(ctx context.Context, req user.RegisterRequest) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Me(ctx context.Context, actingUser string) (user.Profile, error)
	UpdateProfile(ctx context.Context, actingUser string, patch user.ProfilePatch) (service.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) (service.AuthResult, error)
}

type UsersHandler struct {
	svc UsersService
}

func NewUsersHandler(svc UsersService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// POST /api/users
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates here
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.svc.Register(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, res)
}

// POST /api/users/login
func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.svc.Login(cctx, req.Email, req.Password)
	if err != nil {
		RespondServiceError(ctx, err, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// GET /api/users/me
func (h *UsersHandler) Me(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.svc.Me(cctx, userID)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch profile")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// PUT /api/users/profile
func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := actingUser(ctx)
	if !ok {
		return
	}

	var patch user.ProfilePatch
	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.svc.UpdateProfile(cctx, userID, patch)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// POST /api/users/forgotpassword
func (h *UsersHandler) ForgotPassword(ctx *gin.Context) {
	var req user.ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.svc.ForgotPassword(cctx, req.Email); err != nil {
		RespondServiceError(ctx, err, "Could not start password reset")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    "Email sent",
	})
}

// PUT /api/users/resetpassword/:token
func (h *UsersHandler) ResetPassword(ctx *gin.Context) {
	var req user.ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.svc.ResetPassword(cctx, ctx.Param("token"), req.Password)
	if err != nil {
		RespondServiceError(ctx, err, "Could not reset password")
		return
	}

	ctx.JSON(http.StatusOK, res)
}
