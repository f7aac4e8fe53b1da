package models

import "time"

// Comment represents a comment on a post.
type Comment struct {
	ID     uint         `gorm:"primaryKey" json:"id"`
	PostID uint         `gorm:"not null;index" json:"postId"`
	UserID uint         `gorm:"not null;index" json:"authorId"`
	Author *UserSummary `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Text   string       `gorm:"size:500;not null" json:"text"`
	// LikesCount is not persisted; computed at query time
	LikesCount int64     `gorm:"->;-:migration" json:"likesCount"`
	Liked      bool      `gorm:"->;-:migration" json:"liked"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// CommentLike records that UserID liked CommentID.
type CommentLike struct {
	CommentID uint      `gorm:"primaryKey;autoIncrement:false" json:"commentId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (CommentLike) TableName() string {
	return "comment_likes"
}

// LikeResult is returned by like and unlike operations.
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}
