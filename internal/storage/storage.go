// Package storage holds uploaded profile images in an object store.
package storage

import (
	"context"
	"fmt"
	"io"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// AvatarKey is the object key for a user's profile image.
func AvatarKey(userID int) string {
	return fmt.Sprintf("avatars/%d", userID)
}

// Avatars wraps an ObjectStorage backend with avatar-specific operations.
// A nil *Avatars is valid and reports uploads as unsupported.
type Avatars struct {
	backend ObjectStorage
}

// NewAvatars constructs an Avatars store for the provided backend.
func NewAvatars(backend ObjectStorage) *Avatars {
	return &Avatars{backend: backend}
}

// Enabled reports whether an object-storage backend is configured.
func (a *Avatars) Enabled() bool {
	return a != nil && a.backend != nil
}

// EnsureBucket ensures the configured bucket exists.
func (a *Avatars) EnsureBucket(ctx context.Context) error {
	if !a.Enabled() {
		return nil
	}
	return a.backend.EnsureBucket(ctx)
}

// Put stores a user's avatar and returns the serving path.
func (a *Avatars) Put(ctx context.Context, userID int, r io.Reader, size int64, contentType string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("avatar storage is not configured")
	}
	key := AvatarKey(userID)
	if err := a.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return "/media/" + key, nil
}

// Open returns a reader for a user's stored avatar.
func (a *Avatars) Open(ctx context.Context, userID int) (io.ReadCloser, error) {
	if !a.Enabled() {
		return nil, fmt.Errorf("avatar storage is not configured")
	}
	return a.backend.Get(ctx, AvatarKey(userID))
}

// Delete removes a user's stored avatar, ignoring a missing object.
func (a *Avatars) Delete(ctx context.Context, userID int) error {
	if !a.Enabled() {
		return nil
	}
	return a.backend.Delete(ctx, AvatarKey(userID))
}
