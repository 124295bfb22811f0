package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"newvision-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, c *models.Chat) error {
	c.ID = uuid.New()
	if c.Title == "" {
		c.Title = models.DefaultChatTitle
	}

	query := `INSERT INTO chats (id, user_id, title)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Title).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByIDForUser fetches a chat filtered by both id and owner. A chat owned
// by someone else scans as pgx.ErrNoRows, indistinguishable from nonexistence.
func (r *ChatRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Chat, error) {
	c := &models.Chat{}
	query := `SELECT id, user_id, title, is_archived, is_pinned, created_at, updated_at
		FROM chats WHERE id = $1 AND user_id = $2`

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.Title, &c.IsArchived, &c.IsPinned, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Chat, error) {
	query := `SELECT id, user_id, title, is_archived, is_pinned, created_at, updated_at
		FROM chats
		WHERE user_id = $1 AND is_archived = FALSE
		ORDER BY is_pinned DESC, updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		c := &models.Chat{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.IsArchived, &c.IsPinned, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// Touch refreshes updated_at and returns the new value.
func (r *ChatRepo) Touch(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx,
		"UPDATE chats SET updated_at = NOW() WHERE id = $1 RETURNING updated_at", id,
	).Scan(&updatedAt)
	return updatedAt, err
}

func (r *ChatRepo) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := r.pool.Exec(ctx, "UPDATE chats SET title = $2 WHERE id = $1", id, title)
	return err
}

func (r *ChatRepo) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM chats WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ChatRepo) SetArchived(ctx context.Context, id, userID uuid.UUID, archived bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE chats SET is_archived = $3 WHERE id = $1 AND user_id = $2", id, userID, archived)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ChatRepo) SetPinned(ctx context.Context, id, userID uuid.UUID, pinned bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE chats SET is_pinned = $3 WHERE id = $1 AND user_id = $2", id, userID, pinned)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
