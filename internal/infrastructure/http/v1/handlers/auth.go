package handlers

import (
	"github.com/gin-gonic/gin"

	"balcao/internal/core/appctx"
	"balcao/internal/core/apperror"
	"balcao/internal/domain/auth"
	"balcao/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and operator management.
type AuthHandler struct {
	BaseHandler
	service *auth.Service
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), auth.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{Token: token, User: user})
}

// Register creates a till operator.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Username, req.Name, req.Password, req.Role)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, user.ID)
}

// Me returns the authenticated operator's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	op, ok := appctx.GetOperator(c.Request.Context())
	if !ok {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), op.UserID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, user)
}

// List returns all operators.
func (h *AuthHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, users)
}
