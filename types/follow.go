package types

import "time"

// Follow is a directed edge meaning the follower receives updates from
// the followed user. The pair (FollowerID, FollowedID) is unique.
type Follow struct {
	FollowerID int       `json:"follower_id" db:"follower_id"`
	FollowedID int       `json:"followed_id" db:"followed_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Like marks a message as liked by a user. The pair (UserID, MessageID)
// is unique; repeating the like removes the edge again.
type Like struct {
	UserID    int       `json:"user_id" db:"user_id"`
	MessageID int       `json:"message_id" db:"message_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
