package service

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/rayaproluaditya/justforyou-backend/internal/domain"
	"github.com/rayaproluaditya/justforyou-backend/internal/repository"
)

type mockUserRepo struct {
	usersByID   map[string]domain.User
	byUsername  map[string]string
	byEmail     map[string]string
	createCalls int
	upsertCalls int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:  make(map[string]domain.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.createCalls++
	if _, ok := m.byUsername[user.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.usersByID[user.ID] = user
	m.byUsername[user.Username] = user.ID
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	id, ok := m.byUsername[username]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.usersByID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.usersByID[id], nil
}

func (m *mockUserRepo) UpsertLoginToken(_ context.Context, email, username, token string, expiry time.Time) (domain.User, error) {
	m.upsertCalls++
	id, ok := m.byEmail[email]
	if !ok {
		if _, taken := m.byUsername[username]; taken {
			return domain.User{}, repository.ErrDuplicateUsername
		}
		user := domain.User{
			ID:          uuid.NewString(),
			Username:    username,
			Email:       email,
			LoginToken:  &token,
			TokenExpiry: &expiry,
			CreatedAt:   time.Now().UTC(),
		}
		m.usersByID[user.ID] = user
		m.byUsername[username] = user.ID
		m.byEmail[email] = user.ID
		return user, nil
	}

	user := m.usersByID[id]
	if otherID, taken := m.byUsername[username]; taken && otherID != id {
		return domain.User{}, repository.ErrDuplicateUsername
	}
	delete(m.byUsername, user.Username)
	user.Username = username
	user.LoginToken = &token
	user.TokenExpiry = &expiry
	m.usersByID[id] = user
	m.byUsername[username] = id
	return user, nil
}

func (m *mockUserRepo) ConsumeLoginToken(_ context.Context, token string, now time.Time) (domain.User, error) {
	for id, user := range m.usersByID {
		if user.LoginToken == nil || user.TokenExpiry == nil {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(*user.LoginToken), []byte(token)) != 1 {
			continue
		}
		if !user.TokenExpiry.After(now) {
			continue
		}
		user.LoginToken = nil
		user.TokenExpiry = nil
		m.usersByID[id] = user
		return user, nil
	}
	return domain.User{}, pgx.ErrNoRows
}

type mockEmailSender struct {
	lastTo      string
	lastURL     string
	lastExpires time.Time
	calls       int
	err         error
}

func (m *mockEmailSender) SendLoginLink(_ context.Context, toEmail string, loginURL string, expiresAt time.Time) error {
	m.calls++
	m.lastTo = toEmail
	m.lastURL = loginURL
	m.lastExpires = expiresAt
	return m.err
}

func tokenFromURL(t *testing.T, loginURL string) string {
	t.Helper()
	idx := strings.Index(loginURL, "token=")
	if idx < 0 {
		t.Fatalf("login url %q has no token", loginURL)
	}
	return loginURL[idx+len("token="):]
}

func TestAuthServiceRequestLoginAndVerify(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := NewAuthService(zap.NewNop(), repo, sender, "http://localhost:5000", 15*time.Minute)

	if err := svc.RequestLogin(context.Background(), "Alice@Example.com", "alice"); err != nil {
		t.Fatalf("request login: %v", err)
	}
	if sender.lastTo != "alice@example.com" {
		t.Fatalf("expected normalized recipient, got %q", sender.lastTo)
	}
	if !strings.HasPrefix(sender.lastURL, "http://localhost:5000/api/auth/verify?token=") {
		t.Fatalf("unexpected login url %q", sender.lastURL)
	}

	token := tokenFromURL(t, sender.lastURL)
	if len(token) != loginTokenBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", loginTokenBytes*2, len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("token is not hex: %v", err)
	}

	user, err := svc.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected identity %q / %q", user.Username, user.Email)
	}
	if user.LoginToken != nil || user.TokenExpiry != nil {
		t.Fatalf("expected token cleared after verify")
	}
}

func TestAuthServiceVerifySingleUse(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := NewAuthService(zap.NewNop(), repo, sender, "http://localhost:5000", 15*time.Minute)

	if err := svc.RequestLogin(context.Background(), "bob@example.com", "bob"); err != nil {
		t.Fatalf("request login: %v", err)
	}
	token := tokenFromURL(t, sender.lastURL)

	if _, err := svc.Verify(context.Background(), token); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := svc.Verify(context.Background(), token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
}

func TestAuthServiceVerifyExpiredToken(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := NewAuthService(zap.NewNop(), repo, sender, "http://localhost:5000", 15*time.Minute)

	if err := svc.RequestLogin(context.Background(), "carol@example.com", "carol"); err != nil {
		t.Fatalf("request login: %v", err)
	}
	token := tokenFromURL(t, sender.lastURL)

	// El token sigue fisicamente almacenado pero su expiry ya paso.
	id := repo.byEmail["carol@example.com"]
	user := repo.usersByID[id]
	expired := time.Now().UTC().Add(-time.Minute)
	user.TokenExpiry = &expired
	repo.usersByID[id] = user

	if _, err := svc.Verify(context.Background(), token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAuthServiceRequestLoginMissingFields(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := NewAuthService(zap.NewNop(), repo, sender, "http://localhost:5000", 15*time.Minute)

	cases := []struct {
		name     string
		email    string
		username string
	}{
		{"empty email", "", "alice"},
		{"empty username", "alice@example.com", ""},
		{"both empty", "", ""},
		{"whitespace only", "   ", "  "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.RequestLogin(context.Background(), tc.email, tc.username); err != ErrMissingFields {
				t.Fatalf("expected ErrMissingFields, got %v", err)
			}
		})
	}
	if repo.upsertCalls != 0 || repo.createCalls != 0 {
		t.Fatalf("expected no persistence mutation, got %d upserts %d creates", repo.upsertCalls, repo.createCalls)
	}
	if sender.calls != 0 {
		t.Fatalf("expected no email dispatch, got %d", sender.calls)
	}
}

func TestAuthServiceRequestLoginSenderFailure(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{err: errors.New("smtp down")}
	svc := NewAuthService(zap.NewNop(), repo, sender, "http://localhost:5000", 15*time.Minute)

	if err := svc.RequestLogin(context.Background(), "dave@example.com", "dave"); err != ErrEmailSendFailure {
		t.Fatalf("expected ErrEmailSendFailure, got %v", err)
	}

	// Sin rollback: el token queda persistido aunque el envio falle.
	user, err := repo.GetByEmail(context.Background(), "dave@example.com")
	if err != nil {
		t.Fatalf("expected user persisted, got %v", err)
	}
	if !user.HasPendingLogin(time.Now().UTC()) {
		t.Fatalf("expected pending login token persisted")
	}
}

func TestAuthServiceRequestLoginUpsertsByEmail(t *testing.T) {
	repo := newMockUserRepo()
	sender := &mockEmailSender{}
	svc := NewAuthService(zap.NewNop(), repo, sender, "http://localhost:5000", 15*time.Minute)

	if err := svc.RequestLogin(context.Background(), "eve@example.com", "eve"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	firstToken := tokenFromURL(t, sender.lastURL)

	if err := svc.RequestLogin(context.Background(), "eve@example.com", "evelyn"); err != nil {
		t.Fatalf("second request: %v", err)
	}
	secondToken := tokenFromURL(t, sender.lastURL)

	if len(repo.usersByID) != 1 {
		t.Fatalf("expected a single user per email, got %d", len(repo.usersByID))
	}
	if _, err := svc.Verify(context.Background(), firstToken); err != ErrInvalidToken {
		t.Fatalf("expected superseded token rejected, got %v", err)
	}
	user, err := svc.Verify(context.Background(), secondToken)
	if err != nil {
		t.Fatalf("verify latest token: %v", err)
	}
	if user.Username != "evelyn" {
		t.Fatalf("expected username updated on upsert, got %q", user.Username)
	}
}

func TestAuthServiceVerifyEmptyToken(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(zap.NewNop(), repo, &mockEmailSender{}, "http://localhost:5000", 15*time.Minute)

	if _, err := svc.Verify(context.Background(), "  "); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
