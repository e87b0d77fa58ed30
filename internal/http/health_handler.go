package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler expone liveness y health del servicio.
type HealthHandler struct {
	logger *zap.Logger
	ping   func(ctx context.Context) error
}

func NewHealthHandler(logger *zap.Logger, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		ping:   ping,
	}
}

// Live maneja GET /.
func (h *HealthHandler) Live(c *gin.Context) {
	c.String(http.StatusOK, "JustForYou backend running")
}

// Health maneja GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
