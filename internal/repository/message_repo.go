package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rayaproluaditya/justforyou-backend/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) error
	List(ctx context.Context) ([]domain.Message, error)
	ListByUsername(ctx context.Context, username string) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) error {
	const query = `
		INSERT INTO messages (id, username, text, emotion, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.Username,
		message.Text,
		message.Emotion,
		message.CreatedAt,
	)
	return err
}

func (r *PgMessageRepository) List(ctx context.Context) ([]domain.Message, error) {
	const query = `
		SELECT id, username, text, emotion, created_at
		FROM messages
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *PgMessageRepository) ListByUsername(ctx context.Context, username string) ([]domain.Message, error) {
	const query = `
		SELECT id, username, text, emotion, created_at
		FROM messages
		WHERE username = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(
			&msg.ID,
			&msg.Username,
			&msg.Text,
			&msg.Emotion,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
