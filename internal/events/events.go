// Package events publishes domain events to a message broker. The
// broker is optional: with no backend configured every emit is a no-op,
// and a publish failure is logged but never fails the request that
// produced the event.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// Event names carried in the "event" attribute of every published message.
const (
	UserRegistered = "user.registered"
	UserDeleted    = "user.deleted"
	UserFollowed   = "user.followed"
	UserUnfollowed = "user.unfollowed"
	MessageCreated = "message.created"
	MessageDeleted = "message.deleted"
	MessageLiked   = "message.liked"
	MessageUnliked = "message.unliked"
)

// Channel is the broker channel all domain events are published to.
const Channel = "warbler.events"

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Envelope is the JSON body of every published event.
type Envelope struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     int       `json:"user_id,omitempty"`
	OtherID    int       `json:"other_id,omitempty"`
	MessageID  int       `json:"message_id,omitempty"`
}

// Bus wraps a backend with a stable, nil-safe API.
type Bus struct {
	backend Backend
	logger  *logrus.Logger
}

// New constructs a Bus for the provided backend. A nil backend yields a
// bus that drops every event.
func New(backend Backend, logger *logrus.Logger) *Bus {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Bus{backend: backend, logger: logger}
}

// Emit publishes the envelope. Failures are logged, never returned: a
// broker outage must not break a user-facing mutation.
func (b *Bus) Emit(ctx context.Context, envelope Envelope) {
	if b == nil || b.backend == nil {
		return
	}
	envelope.OccurredAt = time.Now()

	data, err := json.Marshal(envelope)
	if err != nil {
		b.logger.WithError(err).WithField("event", envelope.Event).Warn("failed to encode event")
		return
	}

	attrs := map[string]string{"event": envelope.Event}
	if _, err := b.backend.Publish(ctx, Channel, data, attrs); err != nil {
		b.logger.WithError(err).WithField("event", envelope.Event).Warn("failed to publish event")
	}
}

// Subscribe consumes events from the bus channel.
func (b *Bus) Subscribe(ctx context.Context, handler Handler) error {
	if b == nil || b.backend == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return b.backend.Subscribe(ctx, Channel, handler)
}

// Close closes the underlying backend.
func (b *Bus) Close() error {
	if b == nil || b.backend == nil {
		return nil
	}
	return b.backend.Close()
}
