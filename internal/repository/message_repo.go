package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"newvision-backend/internal/models"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Insert persists a message. The caller supplies created_at (the client
// clock of the optimistic apply); the store assigns the id.
func (r *MessageRepo) Insert(ctx context.Context, m *models.Message) error {
	query := `INSERT INTO messages (chat_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return r.pool.QueryRow(ctx, query, m.ChatID, m.Role, m.Content, m.CreatedAt).Scan(&m.ID)
}

// ListByChat returns the full history ascending by creation time, id as the
// insertion-order tiebreak. No pagination: a chat history is materialized in
// full.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	query := `SELECT id, chat_id, role, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// FirstUserMessage returns the content of the earliest user-authored message
// in the chat. Used for title derivation while the chat still carries the
// default title.
func (r *MessageRepo) FirstUserMessage(ctx context.Context, chatID uuid.UUID) (string, error) {
	var content string
	err := r.pool.QueryRow(ctx, `
		SELECT content FROM messages
		WHERE chat_id = $1 AND role = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, chatID, models.RoleUser,
	).Scan(&content)
	return content, err
}
