package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Post represents an image post.
type Post struct {
	ID       uint         `gorm:"primaryKey" json:"id"`
	UserID   uint         `gorm:"not null;index" json:"authorId"`
	Author   *UserSummary `gorm:"foreignKey:UserID" json:"author,omitempty"`
	ImageURL string       `gorm:"not null" json:"imageUrl"`
	// ImageKey identifies the stored image so it can be released on delete.
	ImageKey string `gorm:"size:128;index" json:"-"`
	Caption  string `gorm:"size:2200" json:"caption"`
	Location string `gorm:"size:100" json:"location"`
	Tags     Tags   `gorm:"type:text" json:"tags"`
	// Comments is only populated on detail and feed reads, oldest first.
	Comments []*Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likesCount"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int64 `gorm:"->;-:migration" json:"commentsCount"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"->;-:migration" json:"liked"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostLike records that UserID liked PostID. The composite key makes a like a set member.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (PostLike) TableName() string {
	return "post_likes"
}

// Tags is an ordered list of post tags persisted as a JSON array.
type Tags []string

// ParseTags splits a comma-delimited tag string, trimming blanks and a leading '#'.
func ParseTags(raw string) Tags {
	tags := Tags{}
	for _, part := range strings.Split(raw, ",") {
		t := strings.TrimPrefix(strings.TrimSpace(part), "#")
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("tags: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	*t = out
	return nil
}
