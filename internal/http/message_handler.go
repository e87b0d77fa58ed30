package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rayaproluaditya/justforyou-backend/internal/service"
)

// MessageHandler mantiene dependencias para endpoints de mensajes.
type MessageHandler struct {
	logger      *zap.Logger
	messageServ *service.MessageService
}

// NewMessageHandler crea una instancia de MessageHandler con dependencias necesarias.
func NewMessageHandler(logger *zap.Logger, messageServ *service.MessageService) *MessageHandler {
	return &MessageHandler{
		logger:      logger,
		messageServ: messageServ,
	}
}

// PostMessage maneja POST /api/messages.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req struct {
		Text     string `json:"text"`
		Emotion  string `json:"emotion"`
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	_, err := h.messageServ.Post(c.Request.Context(), req.Username, req.Text, req.Emotion)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			errorID := uuid.NewString()
			h.logger.Error("post message failed", zap.String("error_id", errorID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListMessages maneja GET /api/messages y GET /api/messages/:username.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	msgs, err := h.messageServ.List(c.Request.Context(), c.Param("username"))
	if err != nil {
		errorID := uuid.NewString()
		h.logger.Error("list messages failed", zap.String("error_id", errorID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, msgs)
}
