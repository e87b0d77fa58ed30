package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rayaproluaditya/justforyou-backend/internal/domain"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// UpsertLoginToken crea o actualiza el usuario por email en una sola
	// sentencia atomica, dejando el token de login pendiente.
	UpsertLoginToken(ctx context.Context, email, username, token string, expiry time.Time) (domain.User, error)
	// ConsumeLoginToken limpia el token en la misma sentencia que lo busca,
	// garantizando consumo at-most-once entre requests concurrentes.
	ConsumeLoginToken(ctx context.Context, token string, now time.Time) (domain.User, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, username, email, login_token, token_expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.LoginToken,
		user.TokenExpiry,
		user.CreatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const query = `
		SELECT id, username, email, login_token, token_expiry, created_at
		FROM users
		WHERE username = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, username))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, username, email, login_token, token_expiry, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) UpsertLoginToken(ctx context.Context, email, username, token string, expiry time.Time) (domain.User, error) {
	const query = `
		INSERT INTO users (id, username, email, login_token, token_expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET username = EXCLUDED.username,
		    login_token = EXCLUDED.login_token,
		    token_expiry = EXCLUDED.token_expiry
		RETURNING id, username, email, login_token, token_expiry, created_at
	`
	user, err := r.scanOne(r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		username,
		email,
		token,
		expiry,
		time.Now().UTC(),
	))
	if err != nil {
		return domain.User{}, mapUniqueViolation(err)
	}
	return user, nil
}

func (r *PgUserRepository) ConsumeLoginToken(ctx context.Context, token string, now time.Time) (domain.User, error) {
	const query = `
		UPDATE users
		SET login_token = NULL, token_expiry = NULL
		WHERE login_token = $1 AND token_expiry > $2
		RETURNING id, username, email, login_token, token_expiry, created_at
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, token, now))
}

func (r *PgUserRepository) scanOne(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.LoginToken,
		&u.TokenExpiry,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return u, err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return ErrDuplicateUsername
		case "users_email_key":
			return ErrDuplicateEmail
		}
	}
	return err
}
