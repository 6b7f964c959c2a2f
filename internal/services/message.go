package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/warbler-social/server/internal/events"
	"github.com/warbler-social/server/types"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, message types.Message) (types.Message, error)
	GetByID(ctx context.Context, id int) (types.Message, error)
	Delete(ctx context.Context, id int) error
	ListByUser(ctx context.Context, userID, limit int) ([]types.Message, error)
	ListFeed(ctx context.Context, userID, limit int) ([]types.Message, error)
	ListRecent(ctx context.Context, limit int) ([]types.Message, error)
}

// LikeRepository defines persistence operations for like edges.
type LikeRepository interface {
	Create(ctx context.Context, userID, messageID int) error
	Delete(ctx context.Context, userID, messageID int) error
	Exists(ctx context.Context, userID, messageID int) (bool, error)
	CountForMessage(ctx context.Context, messageID int) (int, error)
	ListMessagesLikedBy(ctx context.Context, userID, limit int) ([]types.Message, error)
}

const defaultListLimit = 100

// MessageService encapsulates message and like use-cases.
type MessageService struct {
	messages MessageRepository
	likes    LikeRepository
	bus      *events.Bus
}

func NewMessageService(messages MessageRepository, likes LikeRepository, bus *events.Bus) *MessageService {
	return &MessageService{messages: messages, likes: likes, bus: bus}
}

// Create posts a new message for the user. Text must be non-empty and at
// most types.MaxMessageLength characters; both are checked before any
// persistence.
func (s *MessageService) Create(ctx context.Context, userID int, text string) (types.Message, error) {
	if strings.TrimSpace(text) == "" {
		return types.Message{}, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > types.MaxMessageLength {
		return types.Message{}, ErrTextTooLong
	}

	message, err := s.messages.Create(ctx, types.Message{UserID: userID, Text: text})
	if err != nil {
		return types.Message{}, err
	}

	s.bus.Emit(ctx, events.Envelope{Event: events.MessageCreated, UserID: userID, MessageID: message.ID})
	return message, nil
}

func (s *MessageService) Get(ctx context.Context, id int) (types.Message, error) {
	return s.messages.GetByID(ctx, id)
}

// Delete removes the message and its likes. Ownership is checked by the
// route layer before calling this.
func (s *MessageService) Delete(ctx context.Context, userID, messageID int) error {
	if err := s.messages.Delete(ctx, messageID); err != nil {
		return err
	}
	s.bus.Emit(ctx, events.Envelope{Event: events.MessageDeleted, UserID: userID, MessageID: messageID})
	return nil
}

// ToggleLike likes the message if the user has no like edge to it, and
// removes the like otherwise. The returned bool is the state after the
// call. A concurrent duplicate insert or delete is treated as "someone
// already performed an equivalent mutation", not as a failure.
func (s *MessageService) ToggleLike(ctx context.Context, userID, messageID int) (bool, error) {
	if _, err := s.messages.GetByID(ctx, messageID); err != nil {
		return false, err
	}

	liked, err := s.likes.Exists(ctx, userID, messageID)
	if err != nil {
		return false, err
	}

	if liked {
		if err := s.likes.Delete(ctx, userID, messageID); err != nil && !isNotFound(err) {
			return false, err
		}
		s.bus.Emit(ctx, events.Envelope{Event: events.MessageUnliked, UserID: userID, MessageID: messageID})
		return false, nil
	}

	if err := s.likes.Create(ctx, userID, messageID); err != nil && !isConflict(err) {
		return false, err
	}
	s.bus.Emit(ctx, events.Envelope{Event: events.MessageLiked, UserID: userID, MessageID: messageID})
	return true, nil
}

// HasLiked reports whether the user currently likes the message.
func (s *MessageService) HasLiked(ctx context.Context, userID, messageID int) (bool, error) {
	return s.likes.Exists(ctx, userID, messageID)
}

// LikeCount returns how many users like the message.
func (s *MessageService) LikeCount(ctx context.Context, messageID int) (int, error) {
	return s.likes.CountForMessage(ctx, messageID)
}

// Feed returns the newest messages by the user and everyone they follow.
func (s *MessageService) Feed(ctx context.Context, userID int) ([]types.Message, error) {
	return s.messages.ListFeed(ctx, userID, defaultListLimit)
}

// Recent returns the newest messages across all users.
func (s *MessageService) Recent(ctx context.Context) ([]types.Message, error) {
	return s.messages.ListRecent(ctx, defaultListLimit)
}

// ByUser returns the user's own messages, newest first.
func (s *MessageService) ByUser(ctx context.Context, userID int) ([]types.Message, error) {
	return s.messages.ListByUser(ctx, userID, defaultListLimit)
}

// LikedBy returns the messages the user has liked.
func (s *MessageService) LikedBy(ctx context.Context, userID int) ([]types.Message, error) {
	return s.likes.ListMessagesLikedBy(ctx, userID, defaultListLimit)
}
