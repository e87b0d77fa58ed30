package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rayaproluaditya/justforyou-backend/internal/service"
)

// AuthHandler mantiene dependencias para endpoints de autenticacion.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
	}
}

// RequestLogin maneja POST /api/auth/request-login.
func (h *AuthHandler) RequestLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid request login body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.authServ.RequestLogin(c.Request.Context(), req.Email, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send login email"})
		default:
			errorID := uuid.NewString()
			h.logger.Error("request login failed", zap.String("error_id", errorID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Verify maneja GET /api/auth/verify.
func (h *AuthHandler) Verify(c *gin.Context) {
	user, err := h.authServ.Verify(c.Request.Context(), c.Query("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		errorID := uuid.NewString()
		h.logger.Error("verify token failed", zap.String("error_id", errorID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "username": user.Username, "email": user.Email})
}
