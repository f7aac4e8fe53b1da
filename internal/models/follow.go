package models

import "time"

// Follow is a directed edge in the social graph: FollowerID follows FolloweeID.
// One row per edge, so followers and following lists are always consistent.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_edge;index:idx_follows_follower" json:"followerId"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follow_edge;index:idx_follows_followee" json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`

	Follower UserSummary `gorm:"foreignKey:FollowerID" json:"-"`
	Followee UserSummary `gorm:"foreignKey:FolloweeID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowCounts is returned by follow and unfollow.
type FollowCounts struct {
	// FollowingCount is how many accounts the follower now follows.
	FollowingCount int64 `json:"followingCount"`
	// FollowerCount is how many followers the target now has.
	FollowerCount int64 `json:"followerCount"`
}
