package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/rayaproluaditya/justforyou-backend/internal/domain"
	"github.com/rayaproluaditya/justforyou-backend/internal/repository"
)

// MessageService encapsula la lógica para publicar y listar mensajes.
type MessageService struct {
	logger              *zap.Logger
	messages            repository.MessageRepository
	users               repository.UserRepository
	cache               FeedCache
	requireExistingUser bool
}

func NewMessageService(logger *zap.Logger, messages repository.MessageRepository, users repository.UserRepository, cache FeedCache, requireExistingUser bool) *MessageService {
	return &MessageService{
		logger:              logger,
		messages:            messages,
		users:               users,
		cache:               cache,
		requireExistingUser: requireExistingUser,
	}
}

// Post persiste un mensaje nuevo. Con requireExistingUser activo el username
// referenciado debe existir; por defecto se admiten mensajes huerfanos.
func (s *MessageService) Post(ctx context.Context, username, text, emotion string) (domain.Message, error) {
	if s == nil || s.messages == nil {
		return domain.Message{}, errors.New("message service not configured")
	}

	username = strings.TrimSpace(username)
	text = strings.TrimSpace(text)
	emotion = strings.TrimSpace(emotion)
	if username == "" || text == "" || emotion == "" {
		return domain.Message{}, ErrMissingFields
	}

	if s.requireExistingUser {
		if s.users == nil {
			return domain.Message{}, errors.New("message service not configured")
		}
		if _, err := s.users.GetByUsername(ctx, username); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.Message{}, ErrUserNotFound
			}
			return domain.Message{}, err
		}
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		Username:  username,
		Text:      text,
		Emotion:   emotion,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return msg, nil
}

// List devuelve mensajes ordenados del mas nuevo al mas viejo. Sin filtro
// consulta el cache del feed global si esta configurado.
func (s *MessageService) List(ctx context.Context, username string) ([]domain.Message, error) {
	if s == nil || s.messages == nil {
		return nil, errors.New("message service not configured")
	}

	username = strings.TrimSpace(username)
	if username != "" {
		msgs, err := s.messages.ListByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		return nonNil(msgs), nil
	}

	if s.cache != nil {
		if msgs, ok := s.cache.Get(ctx); ok {
			return nonNil(msgs), nil
		}
	}

	msgs, err := s.messages.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, msgs)
	}
	return nonNil(msgs), nil
}

// nonNil garantiza un array JSON vacio en lugar de null.
func nonNil(msgs []domain.Message) []domain.Message {
	if msgs == nil {
		return []domain.Message{}
	}
	return msgs
}
