package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/warbler-social/server/types"
)

func init() {
	RegisterConstraintClassifier(func(err error) bool {
		var sqliteErr sqlite3.Error
		return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
	})
}

// The suite runs against in-memory SQLite. The repositories stick to the
// subset of SQL both drivers accept, so the same queries run unchanged
// against Postgres in production.
const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE CHECK (email <> ''),
	password_hash TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	header_image_url TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users (id),
	text TEXT NOT NULL CHECK (text <> ''),
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE follows (
	follower_id INTEGER NOT NULL REFERENCES users (id),
	followed_id INTEGER NOT NULL REFERENCES users (id),
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (follower_id, followed_id)
);

CREATE TABLE likes (
	user_id INTEGER NOT NULL REFERENCES users (id),
	message_id INTEGER NOT NULL REFERENCES messages (id),
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, message_id)
);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// A second connection would see a different empty memory database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *sql.DB, username string) types.User {
	t.Helper()

	repo := NewUserRepository(db)
	user, err := repo.Create(context.Background(), types.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func seedMessage(t *testing.T, db *sql.DB, userID int, text string) types.Message {
	t.Helper()

	repo := NewMessageRepository(db)
	message, err := repo.Create(context.Background(), types.Message{UserID: userID, Text: text})
	require.NoError(t, err)
	return message
}
