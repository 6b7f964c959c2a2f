package services

import (
	"errors"

	"github.com/warbler-social/server/internal/store"
)

// ErrEmptyText is returned when a message has no text.
var ErrEmptyText = errors.New("message text must not be empty")

// ErrTextTooLong is returned when a message exceeds the maximum length.
var ErrTextTooLong = errors.New("message text is too long")

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, store.ErrConflict)
}
