package notifications

import (
	"fmt"
	"time"

	"aperture/internal/models"
)

// Event types delivered to the notification socket.
const (
	EventNewFollower    = "new_follower"
	EventPostLiked      = "post_liked"
	EventCommentCreated = "comment_created"
	EventCommentLiked   = "comment_liked"
)

// Actor is the account that caused an event.
type Actor struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// Event is the JSON payload pushed to a recipient.
type Event struct {
	Type      string    `json:"type"`
	Actor     Actor     `json:"actor"`
	PostID    *uint     `json:"postId,omitempty"`
	CommentID *uint     `json:"commentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEvent builds an event of kind caused by actor.
func NewEvent(kind string, actor models.UserSummary) Event {
	return Event{
		Type: kind,
		Actor: Actor{
			ID:             actor.ID,
			Username:       actor.Username,
			ProfilePicture: actor.ProfilePicture,
		},
		CreatedAt: time.Now().UTC(),
	}
}

// WithPost sets the post the event refers to.
func (e Event) WithPost(id uint) Event {
	e.PostID = &id
	return e
}

// WithComment sets the comment the event refers to.
func (e Event) WithComment(id uint) Event {
	e.CommentID = &id
	return e
}

// UserChannel is the pub/sub channel of a single recipient.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}
