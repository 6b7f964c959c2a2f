package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warbler-social/server/internal/store"
	"github.com/warbler-social/server/types"
)

func newMessageService() (*MessageService, *fakeMessageRepo, *fakeLikeRepo, *fakeFollowRepo) {
	users := newFakeUserRepo()
	follows := newFakeFollowRepo(users)
	messages := newFakeMessageRepo(follows)
	likes := newFakeLikeRepo(messages)
	return NewMessageService(messages, likes, nil), messages, likes, follows
}

func TestCreateMessage(t *testing.T) {
	svc, _, _, _ := newMessageService()
	ctx := context.Background()

	message, err := svc.Create(ctx, 1, "Hello")
	require.NoError(t, err)
	require.NotZero(t, message.ID)
	require.Equal(t, "Hello", message.Text)
	require.Equal(t, 1, message.UserID)
}

func TestCreateMessageValidation(t *testing.T) {
	svc, _, _, _ := newMessageService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "")
	require.ErrorIs(t, err, ErrEmptyText)

	_, err = svc.Create(ctx, 1, "   ")
	require.ErrorIs(t, err, ErrEmptyText)

	_, err = svc.Create(ctx, 1, strings.Repeat("a", types.MaxMessageLength+1))
	require.ErrorIs(t, err, ErrTextTooLong)

	// Exactly the limit is fine.
	_, err = svc.Create(ctx, 1, strings.Repeat("a", types.MaxMessageLength))
	require.NoError(t, err)

	// Length is counted in characters, not bytes.
	_, err = svc.Create(ctx, 1, strings.Repeat("ü", types.MaxMessageLength))
	require.NoError(t, err)
}

func TestToggleLike(t *testing.T) {
	svc, _, likes, _ := newMessageService()
	ctx := context.Background()

	message, err := svc.Create(ctx, 1, "likeable")
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, 2, message.ID)
	require.NoError(t, err)
	require.True(t, liked)

	has, err := svc.HasLiked(ctx, 2, message.ID)
	require.NoError(t, err)
	require.True(t, has)

	count, err := svc.LikeCount(ctx, message.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// Second toggle removes the like.
	liked, err = svc.ToggleLike(ctx, 2, message.ID)
	require.NoError(t, err)
	require.False(t, liked)

	count, err = svc.LikeCount(ctx, message.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	require.Empty(t, likes.edges)
}

func TestToggleLikeMissingMessage(t *testing.T) {
	svc, _, _, _ := newMessageService()

	_, err := svc.ToggleLike(context.Background(), 1, 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleLikeOwnMessage(t *testing.T) {
	svc, _, _, _ := newMessageService()
	ctx := context.Background()

	message, err := svc.Create(ctx, 1, "self like")
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, 1, message.ID)
	require.NoError(t, err)
	require.True(t, liked)
}

func TestFeed(t *testing.T) {
	svc, _, _, follows := newMessageService()
	ctx := context.Background()

	require.NoError(t, follows.Create(ctx, 1, 2))

	_, err := svc.Create(ctx, 1, "mine")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, "followed")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 3, "stranger")
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	require.Equal(t, "followed", feed[0].Text)
	require.Equal(t, "mine", feed[1].Text)
}

func TestDeleteMessage(t *testing.T) {
	svc, _, _, _ := newMessageService()
	ctx := context.Background()

	message, err := svc.Create(ctx, 1, "short lived")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, message.ID))

	_, err = svc.Get(ctx, message.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, 1, message.ID), store.ErrNotFound)
}
