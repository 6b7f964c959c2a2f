package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/warbler-social/server/internal/store"
	"github.com/warbler-social/server/types"
)

// In-memory repositories backing the service tests. They enforce the
// same constraints the schema does, and return the same sentinel errors
// the real store does.

type fakeUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if user.Email == "" {
		return types.User{}, store.ErrConflict
	}
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) List(_ context.Context, filter string, limit int) ([]types.User, error) {
	var users []types.User
	for _, user := range r.users {
		if filter == "" || strings.Contains(strings.ToLower(user.Username), strings.ToLower(filter)) {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	for _, existing := range r.users {
		if existing.ID != user.ID && (existing.Username == user.Username || existing.Email == user.Email) {
			return types.User{}, store.ErrConflict
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeMessageRepo struct {
	nextID   int
	messages map[int]types.Message
	follows  *fakeFollowRepo
}

func newFakeMessageRepo(follows *fakeFollowRepo) *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1, messages: map[int]types.Message{}, follows: follows}
}

func (r *fakeMessageRepo) Create(_ context.Context, message types.Message) (types.Message, error) {
	message.ID = r.nextID
	message.CreatedAt = time.Now()
	r.nextID++
	r.messages[message.ID] = message
	return message, nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id int) (types.Message, error) {
	message, ok := r.messages[id]
	if !ok {
		return types.Message{}, store.ErrNotFound
	}
	return message, nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.messages[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) ListByUser(_ context.Context, userID, limit int) ([]types.Message, error) {
	return r.list(limit, func(m types.Message) bool { return m.UserID == userID }), nil
}

func (r *fakeMessageRepo) ListFeed(_ context.Context, userID, limit int) ([]types.Message, error) {
	return r.list(limit, func(m types.Message) bool {
		if m.UserID == userID {
			return true
		}
		if r.follows == nil {
			return false
		}
		return r.follows.edges[[2]int{userID, m.UserID}]
	}), nil
}

func (r *fakeMessageRepo) ListRecent(_ context.Context, limit int) ([]types.Message, error) {
	return r.list(limit, func(types.Message) bool { return true }), nil
}

func (r *fakeMessageRepo) list(limit int, keep func(types.Message) bool) []types.Message {
	var messages []types.Message
	for _, message := range r.messages {
		if keep(message) {
			messages = append(messages, message)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID > messages[j].ID })
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages
}

type fakeFollowRepo struct {
	users *fakeUserRepo
	edges map[[2]int]bool
}

func newFakeFollowRepo(users *fakeUserRepo) *fakeFollowRepo {
	return &fakeFollowRepo{users: users, edges: map[[2]int]bool{}}
}

func (r *fakeFollowRepo) Create(_ context.Context, followerID, followedID int) error {
	key := [2]int{followerID, followedID}
	if r.edges[key] {
		return store.ErrConflict
	}
	r.edges[key] = true
	return nil
}

func (r *fakeFollowRepo) Delete(_ context.Context, followerID, followedID int) error {
	key := [2]int{followerID, followedID}
	if !r.edges[key] {
		return store.ErrNotFound
	}
	delete(r.edges, key)
	return nil
}

func (r *fakeFollowRepo) Exists(_ context.Context, followerID, followedID int) (bool, error) {
	return r.edges[[2]int{followerID, followedID}], nil
}

func (r *fakeFollowRepo) Following(ctx context.Context, userID int) ([]types.User, error) {
	return r.collect(func(edge [2]int) (int, bool) {
		return edge[1], edge[0] == userID
	})
}

func (r *fakeFollowRepo) Followers(ctx context.Context, userID int) ([]types.User, error) {
	return r.collect(func(edge [2]int) (int, bool) {
		return edge[0], edge[1] == userID
	})
}

func (r *fakeFollowRepo) collect(pick func([2]int) (int, bool)) ([]types.User, error) {
	var users []types.User
	for edge := range r.edges {
		id, ok := pick(edge)
		if !ok {
			continue
		}
		if user, exists := r.users.users[id]; exists {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

type fakeLikeRepo struct {
	messages *fakeMessageRepo
	edges    map[[2]int]bool
}

func newFakeLikeRepo(messages *fakeMessageRepo) *fakeLikeRepo {
	return &fakeLikeRepo{messages: messages, edges: map[[2]int]bool{}}
}

func (r *fakeLikeRepo) Create(_ context.Context, userID, messageID int) error {
	key := [2]int{userID, messageID}
	if r.edges[key] {
		return store.ErrConflict
	}
	r.edges[key] = true
	return nil
}

func (r *fakeLikeRepo) Delete(_ context.Context, userID, messageID int) error {
	key := [2]int{userID, messageID}
	if !r.edges[key] {
		return store.ErrNotFound
	}
	delete(r.edges, key)
	return nil
}

func (r *fakeLikeRepo) Exists(_ context.Context, userID, messageID int) (bool, error) {
	return r.edges[[2]int{userID, messageID}], nil
}

func (r *fakeLikeRepo) CountForMessage(_ context.Context, messageID int) (int, error) {
	count := 0
	for edge := range r.edges {
		if edge[1] == messageID {
			count++
		}
	}
	return count, nil
}

func (r *fakeLikeRepo) ListMessagesLikedBy(_ context.Context, userID, limit int) ([]types.Message, error) {
	var messages []types.Message
	for edge := range r.edges {
		if edge[0] != userID {
			continue
		}
		if message, ok := r.messages.messages[edge[1]]; ok {
			messages = append(messages, message)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID > messages[j].ID })
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}
