package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/warbler-social/server/types"
)

// FollowRepository handles persistence for follow edges.
type FollowRepository struct {
	db *sql.DB
}

func NewFollowRepository(db *sql.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts the edge. The composite primary key rejects a second
// edge for the same ordered pair; that surfaces as ErrConflict.
func (r *FollowRepository) Create(ctx context.Context, followerID, followedID int) error {
	const query = `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, followerID, followedID, time.Now()); err != nil {
		return mapConstraintErr(err)
	}
	return nil
}

func (r *FollowRepository) Delete(ctx context.Context, followerID, followedID int) error {
	const query = `
		DELETE FROM follows
		WHERE follower_id = $1 AND followed_id = $2`
	result, err := r.db.ExecContext(ctx, query, followerID, followedID)
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

// Exists reports whether followerID follows followedID. Indexed lookup,
// not a scan.
func (r *FollowRepository) Exists(ctx context.Context, followerID, followedID int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM follows
			WHERE follower_id = $1 AND followed_id = $2
		)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, followerID, followedID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Following returns the users the given user follows.
func (r *FollowRepository) Following(ctx context.Context, userID int) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id IN (SELECT followed_id FROM follows WHERE follower_id = $1)
		ORDER BY username`
	return r.queryUsers(ctx, query, userID)
}

// Followers returns the users following the given user.
func (r *FollowRepository) Followers(ctx context.Context, userID int) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id IN (SELECT follower_id FROM follows WHERE followed_id = $1)
		ORDER BY username`
	return r.queryUsers(ctx, query, userID)
}

func (r *FollowRepository) queryUsers(ctx context.Context, query string, args ...any) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
