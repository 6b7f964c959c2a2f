package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/warbler-social/server/types"
)

// MessageRepository handles persistence for messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts the message. A user_id that does not resolve to an
// existing user violates the foreign key and surfaces as ErrConflict.
func (r *MessageRepository) Create(ctx context.Context, message types.Message) (types.Message, error) {
	message.CreatedAt = time.Now()

	const query = `
		INSERT INTO messages (user_id, text, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		message.UserID,
		message.Text,
		message.CreatedAt,
	).Scan(&message.ID); err != nil {
		return types.Message{}, mapConstraintErr(err)
	}
	return message, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int) (types.Message, error) {
	const query = `
		SELECT m.id, m.user_id, m.text, m.created_at, u.username
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = $1`
	var message types.Message
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&message.ID,
		&message.UserID,
		&message.Text,
		&message.CreatedAt,
		&message.Username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, ErrNotFound
		}
		return types.Message{}, err
	}
	return message, nil
}

// Delete removes the message and any likes referencing it in one
// transaction, so no dangling like edges remain.
func (r *MessageRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE message_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
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

	return tx.Commit()
}

func (r *MessageRepository) ListByUser(ctx context.Context, userID, limit int) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.user_id, m.text, m.created_at, u.username
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2`
	return r.queryMessages(ctx, query, userID, limit)
}

// ListFeed returns the newest messages authored by the user or by anyone
// the user follows.
func (r *MessageRepository) ListFeed(ctx context.Context, userID, limit int) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.user_id, m.text, m.created_at, u.username
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = $1
		   OR m.user_id IN (SELECT followed_id FROM follows WHERE follower_id = $2)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $3`
	return r.queryMessages(ctx, query, userID, userID, limit)
}

// ListRecent returns the newest messages across all users.
func (r *MessageRepository) ListRecent(ctx context.Context, limit int) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.user_id, m.text, m.created_at, u.username
		FROM messages m
		JOIN users u ON u.id = m.user_id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $1`
	return r.queryMessages(ctx, query, limit)
}

func (r *MessageRepository) queryMessages(ctx context.Context, query string, args ...any) ([]types.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
