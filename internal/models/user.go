// Package models contains data structures for the application's domain models.
package models

import "time"

// DefaultProfilePicture is assigned to accounts that register without one.
const DefaultProfilePicture = "https://via.placeholder.com/200?text=Profile"

// User represents an account.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	FullName       string    `gorm:"size:100;not null;index" json:"fullName"`
	Bio            string    `gorm:"size:150" json:"bio"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Not persisted; computed at query time
	FollowersCount int64 `gorm:"->;-:migration" json:"followersCount"`
	FollowingCount int64 `gorm:"->;-:migration" json:"followingCount"`
	PostsCount     int64 `gorm:"->;-:migration" json:"postsCount"`
}

// Summary returns the public subset of the account used when embedding authors.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
	}
}

// UserSummary is the public, embeddable view of an account.
// It maps onto the users table so GORM can preload it as an association.
type UserSummary struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	ProfilePicture string `json:"profilePicture"`
}

// TableName specifies the table name for GORM
func (UserSummary) TableName() string {
	return "users"
}

// Profile is an account together with its resolved social graph.
type Profile struct {
	User
	Followers []UserSummary `json:"followers"`
	Following []UserSummary `json:"following"`
	// IsFollowing is relative to the viewer and never cached.
	IsFollowing bool `json:"isFollowing"`
}
