package service

import (
	"context"

	"github.com/rayaproluaditya/justforyou-backend/internal/domain"
)

// FeedCache guarda el feed global de mensajes por un TTL corto. Todas las
// operaciones son best-effort: un fallo del cache nunca falla el request.
type FeedCache interface {
	Get(ctx context.Context) ([]domain.Message, bool)
	Set(ctx context.Context, msgs []domain.Message)
	Invalidate(ctx context.Context)
}
