package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/warbler-social/server/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, image_url, header_image_url, bio, location, created_at`

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ImageURL,
		&user.HeaderImageURL,
		&user.Bio,
		&user.Location,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// Create inserts the user. Uniqueness of username and email and the
// non-empty email rule are enforced by the schema; violations surface
// here as ErrConflict, not during staging.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.CreatedAt = time.Now()

	const query = `
		INSERT INTO users (username, email, password_hash, image_url, header_image_url, bio, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ImageURL,
		user.HeaderImageURL,
		user.Bio,
		user.Location,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, mapConstraintErr(err)
	}
	return user, nil
}

// List returns users ordered by username. A non-empty filter narrows the
// result to usernames containing the substring, case-insensitively.
func (r *UserRepository) List(ctx context.Context, filter string, limit int) ([]types.User, error) {
	const listQuery = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY username
		LIMIT $1`
	const filterQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(username) LIKE '%' || lower($1) || '%'
		ORDER BY username
		LIMIT $2`

	var rows *sql.Rows
	var err error
	if filter == "" {
		rows, err = r.db.QueryContext(ctx, listQuery, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, filterQuery, filter, limit)
	}
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

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		UPDATE users
		SET username = $1,
			email = $2,
			image_url = $3,
			header_image_url = $4,
			bio = $5,
			location = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.ImageURL,
		user.HeaderImageURL,
		user.Bio,
		user.Location,
		user.ID,
	)
	if err != nil {
		return types.User{}, mapConstraintErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// Delete removes the user and every dependent row in one transaction:
// likes made by the user, likes on the user's messages, follow edges in
// both directions, and the user's messages. Either everything goes or
// nothing does.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	steps := []string{
		`DELETE FROM likes WHERE user_id = $1`,
		`DELETE FROM likes WHERE message_id IN (SELECT id FROM messages WHERE user_id = $1)`,
		`DELETE FROM follows WHERE follower_id = $1 OR followed_id = $1`,
		`DELETE FROM messages WHERE user_id = $1`,
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step, id); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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
