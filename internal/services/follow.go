package services

import (
	"context"

	"github.com/warbler-social/server/internal/events"
	"github.com/warbler-social/server/types"
)

// FollowRepository defines persistence operations for follow edges.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followedID int) error
	Delete(ctx context.Context, followerID, followedID int) error
	Exists(ctx context.Context, followerID, followedID int) (bool, error)
	Following(ctx context.Context, userID int) ([]types.User, error)
	Followers(ctx context.Context, userID int) ([]types.User, error)
}

// FollowService encapsulates follow-edge use-cases.
type FollowService struct {
	repo  FollowRepository
	users UserRepository
	bus   *events.Bus
}

func NewFollowService(repo FollowRepository, users UserRepository, bus *events.Bus) *FollowService {
	return &FollowService{repo: repo, users: users, bus: bus}
}

// Follow creates the edge follower -> followed. The followed user must
// exist. Following someone twice is not an error; the duplicate insert
// is absorbed.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID int) error {
	if _, err := s.users.GetByID(ctx, followedID); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, followerID, followedID); err != nil {
		if isConflict(err) {
			return nil
		}
		return err
	}
	s.bus.Emit(ctx, events.Envelope{Event: events.UserFollowed, UserID: followerID, OtherID: followedID})
	return nil
}

// Unfollow removes the edge follower -> followed. A missing edge is not
// an error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID int) error {
	if err := s.repo.Delete(ctx, followerID, followedID); err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	s.bus.Emit(ctx, events.Envelope{Event: events.UserUnfollowed, UserID: followerID, OtherID: followedID})
	return nil
}

// IsFollowing reports whether user follows other.
func (s *FollowService) IsFollowing(ctx context.Context, userID, otherID int) (bool, error) {
	return s.repo.Exists(ctx, userID, otherID)
}

// IsFollowedBy reports whether other follows user.
func (s *FollowService) IsFollowedBy(ctx context.Context, userID, otherID int) (bool, error) {
	return s.repo.Exists(ctx, otherID, userID)
}

// Following returns the users the given user follows.
func (s *FollowService) Following(ctx context.Context, userID int) ([]types.User, error) {
	return s.repo.Following(ctx, userID)
}

// Followers returns the users following the given user.
func (s *FollowService) Followers(ctx context.Context, userID int) ([]types.User, error) {
	return s.repo.Followers(ctx, userID)
}
