package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/rayaproluaditya/justforyou-backend/internal/domain"
	"github.com/rayaproluaditya/justforyou-backend/internal/email"
	"github.com/rayaproluaditya/justforyou-backend/internal/repository"
)

// AuthService implementa el flujo de login por magic link: emision de un
// token aleatorio ligado al email y verificacion de un solo uso.
type AuthService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	sender   email.Sender
	baseURL  string
	tokenTTL time.Duration
}

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrEmailSendFailure = errors.New("email send failed")
)

const defaultTokenTTL = 15 * time.Minute

// loginTokenBytes son 256 bits de entropia, codificados en hex.
const loginTokenBytes = 32

func NewAuthService(logger *zap.Logger, users repository.UserRepository, sender email.Sender, baseURL string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		logger:   logger,
		users:    users,
		sender:   sender,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokenTTL: tokenTTL,
	}
}

// RequestLogin genera un token pendiente para el email, lo persiste via
// upsert y despacha el enlace de login. El token queda persistido aunque
// el envio falle, para que un reintento de correo no invalide el flujo.
func (s *AuthService) RequestLogin(ctx context.Context, emailAddr, username string) error {
	if s == nil || s.users == nil {
		return errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	username = strings.TrimSpace(username)
	if emailAddr == "" || username == "" {
		return ErrMissingFields
	}

	token, err := generateLoginToken()
	if err != nil {
		return err
	}
	expiresAt := time.Now().UTC().Add(s.tokenTTL)

	user, err := s.users.UpsertLoginToken(ctx, emailAddr, username, token, expiresAt)
	if err != nil {
		// El upsert por email puede chocar con el indice unico de username
		// cuando otro usuario ya lo reclama.
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return ErrUsernameTaken
		}
		return err
	}

	if s.sender == nil {
		return ErrEmailSendFailure
	}
	loginURL := s.baseURL + "/api/auth/verify?token=" + token
	if err := s.sender.SendLoginLink(ctx, user.Email, loginURL, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send login link failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}

	return nil
}

// Verify consume el token presentado. La busqueda y la limpieza ocurren en
// una sola operacion del repositorio, asi dos verificaciones concurrentes
// del mismo token no pueden tener exito ambas.
func (s *AuthService) Verify(ctx context.Context, token string) (domain.User, error) {
	if s == nil || s.users == nil {
		return domain.User{}, errors.New("auth service not configured")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrInvalidToken
	}

	user, err := s.users.ConsumeLoginToken(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, err
	}
	return user, nil
}

func generateLoginToken() (string, error) {
	buf := make([]byte, loginTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
