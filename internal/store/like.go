package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/warbler-social/server/types"
)

// LikeRepository handles persistence for like edges.
type LikeRepository struct {
	db *sql.DB
}

func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create inserts the edge. The composite primary key keeps at most one
// like per (user, message) pair; a duplicate surfaces as ErrConflict.
func (r *LikeRepository) Create(ctx context.Context, userID, messageID int) error {
	const query = `
		INSERT INTO likes (user_id, message_id, created_at)
		VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, userID, messageID, time.Now()); err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

func (r *LikeRepository) Delete(ctx context.Context, userID, messageID int) error {
	const query = `
		DELETE FROM likes
		WHERE user_id = $1 AND message_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, messageID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether the user has liked the message.
func (r *LikeRepository) Exists(ctx context.Context, userID, messageID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM likes
			WHERE user_id = $1 AND message_id = $2
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, messageID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CountForMessage returns how many users like the message.
func (r *LikeRepository) CountForMessage(ctx context.Context, messageID int) (int, error) {
	const query = `SELECT COUNT(*) FROM likes WHERE message_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, messageID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListMessagesLikedBy returns the messages the user has liked, newest
// like first.
func (r *LikeRepository) ListMessagesLikedBy(ctx context.Context, userID, limit int) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.user_id, m.text, m.created_at, u.username
		FROM likes l
		JOIN messages m ON m.id = l.message_id
		JOIN users u ON u.id = m.user_id
		WHERE l.user_id = $1
		ORDER BY l.created_at DESC, m.id DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var message types.Message
		if err := rows.Scan(
			&message.ID,
			&message.UserID,
			&message.Text,
			&message.CreatedAt,
			&message.Username,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
