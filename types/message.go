package types

import "time"

// MaxMessageLength bounds the text of a single message.
const MaxMessageLength = 140

// Message is a short post authored by a user.
type Message struct {
	// ID is the unique identifier of the message.
	ID int `json:"id" db:"id"`

	// UserID is the authoring user. Required; a message never exists
	// without an owning user.
	UserID int `json:"user_id" db:"user_id"`

	// Text is the message body, non-empty and at most MaxMessageLength.
	Text string `json:"text" db:"text"`

	// CreatedAt is server-assigned at insert time.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Username is the author's username when the row was loaded with a
	// join; empty otherwise.
	Username string `json:"username,omitempty" db:"-"`
}
