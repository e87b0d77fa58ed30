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

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
)

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	return &UserService{
		logger: logger,
		users:  users,
	}
}

// CreateUser registra un perfil nuevo y devuelve la URL publica derivada.
func (s *UserService) CreateUser(ctx context.Context, username, emailAddr string) (domain.User, string, error) {
	if s == nil || s.users == nil {
		return domain.User{}, "", errors.New("user service not configured")
	}

	username = strings.TrimSpace(username)
	emailAddr = normalizeEmail(emailAddr)
	if username == "" || emailAddr == "" {
		return domain.User{}, "", ErrMissingFields
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     emailAddr,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return domain.User{}, "", ErrUsernameTaken
		case errors.Is(err, repository.ErrDuplicateEmail):
			return domain.User{}, "", ErrEmailTaken
		default:
			return domain.User{}, "", err
		}
	}

	return user, ProfileURL(username), nil
}

// GetProfile devuelve el perfil publico por username.
func (s *UserService) GetProfile(ctx context.Context, username string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, ErrUserNotFound
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// ProfileURL deriva la ruta publica del perfil de un usuario.
func ProfileURL(username string) string {
	return "/profile/" + username
}
