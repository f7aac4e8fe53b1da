package mongostore

import (
	"time"

	"aperture/internal/models"
)

type userDoc struct {
	ID             uint      `bson:"_id"`
	Username       string    `bson:"username"`
	Email          string    `bson:"email"`
	Password       string    `bson:"password"`
	FullName       string    `bson:"full_name"`
	Bio            string    `bson:"bio"`
	ProfilePicture string    `bson:"profile_picture"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:             d.ID,
		Username:       d.Username,
		Email:          d.Email,
		Password:       d.Password,
		FullName:       d.FullName,
		Bio:            d.Bio,
		ProfilePicture: d.ProfilePicture,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (d *userDoc) summary() models.UserSummary {
	return models.UserSummary{
		ID:             d.ID,
		Username:       d.Username,
		FullName:       d.FullName,
		ProfilePicture: d.ProfilePicture,
	}
}

type followDoc struct {
	FollowerID uint      `bson:"follower_id"`
	FolloweeID uint      `bson:"followee_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

type postDoc struct {
	ID            uint      `bson:"_id"`
	UserID        uint      `bson:"user_id"`
	ImageURL      string    `bson:"image_url"`
	ImageKey      string    `bson:"image_key"`
	Caption       string    `bson:"caption"`
	Location      string    `bson:"location"`
	Tags          []string  `bson:"tags"`
	Likes         []uint    `bson:"likes"`
	LikesCount    int64     `bson:"likes_count"`
	CommentsCount int64     `bson:"comments_count"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (d *postDoc) model(viewerID uint) *models.Post {
	tags := models.Tags{}
	tags = append(tags, d.Tags...)
	return &models.Post{
		ID:            d.ID,
		UserID:        d.UserID,
		ImageURL:      d.ImageURL,
		ImageKey:      d.ImageKey,
		Caption:       d.Caption,
		Location:      d.Location,
		Tags:          tags,
		LikesCount:    d.LikesCount,
		CommentsCount: d.CommentsCount,
		Liked:         containsID(d.Likes, viewerID),
		Comments:      []*models.Comment{},
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type commentDoc struct {
	ID         uint      `bson:"_id"`
	PostID     uint      `bson:"post_id"`
	UserID     uint      `bson:"user_id"`
	Text       string    `bson:"text"`
	Likes      []uint    `bson:"likes"`
	LikesCount int64     `bson:"likes_count"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d *commentDoc) model(viewerID uint) *models.Comment {
	return &models.Comment{
		ID:         d.ID,
		PostID:     d.PostID,
		UserID:     d.UserID,
		Text:       d.Text,
		LikesCount: d.LikesCount,
		Liked:      containsID(d.Likes, viewerID),
		CreatedAt:  d.CreatedAt,
	}
}

// likeDoc is the projection returned by like and unlike updates.
type likeDoc struct {
	LikesCount int64 `bson:"likes_count"`
}

func containsID(ids []uint, id uint) bool {
	if id == 0 {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
