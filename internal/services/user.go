package services

import (
	"context"

	"github.com/warbler-social/server/internal/events"
	"github.com/warbler-social/server/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	List(ctx context.Context, filter string, limit int) ([]types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
	bus  *events.Bus
}

func NewUserService(repo UserRepository, bus *events.Bus) *UserService {
	return &UserService{repo: repo, bus: bus}
}

// Signup registers a new account. Only the password is validated here;
// username and email constraints are enforced by the database when the
// row is inserted, so a duplicate or empty email comes back from the
// repository as store.ErrConflict rather than failing earlier.
func (s *UserService) Signup(ctx context.Context, username, email, password, imageURL string) (types.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	if imageURL == "" {
		imageURL = types.DefaultImageURL
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		ImageURL:       imageURL,
		HeaderImageURL: types.DefaultHeaderImageURL,
	})
	if err != nil {
		return types.User{}, err
	}

	s.bus.Emit(ctx, events.Envelope{Event: events.UserRegistered, UserID: user.ID})
	return user, nil
}

// Authenticate verifies a username/password pair. ok is false for an
// unknown username or a wrong password; neither case is an error. The
// bcrypt comparison always runs so both failures take similar time.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (user types.User, ok bool, err error) {
	user, lookupErr := s.repo.GetByUsername(ctx, username)

	hash := dummyHash
	if lookupErr == nil {
		hash = user.PasswordHash
	}
	match := CheckPassword(password, hash)

	if lookupErr != nil {
		if isNotFound(lookupErr) {
			return types.User{}, false, nil
		}
		return types.User{}, false, lookupErr
	}
	if !match {
		return types.User{}, false, nil
	}
	return user, true, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// List returns users, optionally filtered by a case-insensitive username
// substring.
func (s *UserService) List(ctx context.Context, filter string, limit int) ([]types.User, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, filter, limit)
}

// UpdateProfile stores edited profile fields for the user.
func (s *UserService) UpdateProfile(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Update(ctx, user)
}

// Delete removes the account and everything hanging off it: messages,
// likes in both roles, follow edges in both directions.
func (s *UserService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Emit(ctx, events.Envelope{Event: events.UserDeleted, UserID: id})
	return nil
}
