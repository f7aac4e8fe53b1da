package repository

import (
	"context"

	"aperture/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a GORM-backed FollowRepository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, followerID, followeeID uint) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewAlreadyFollowingError()
	}
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFollowingError()
	}
	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) Counts(ctx context.Context, followerID, followeeID uint) (models.FollowCounts, error) {
	var counts models.FollowCounts
	err := r.db.WithContext(ctx).Raw(
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?) AS following_count,
			(SELECT COUNT(*) FROM follows WHERE followee_id = ?) AS follower_count`,
		followerID, followeeID,
	).Scan(&counts).Error
	if err != nil {
		return counts, models.NewInternalError(err)
	}
	return counts, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.summaries(ctx, "follows.follower_id = users.id", "follows.followee_id = ?", userID)
}

func (r *followRepository) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.summaries(ctx, "follows.followee_id = users.id", "follows.follower_id = ?", userID)
}

// summaries joins follows to users. Results follow edge creation order.
func (r *followRepository) summaries(ctx context.Context, join, where string, userID uint) ([]models.UserSummary, error) {
	out := make([]models.UserSummary, 0)
	if err := r.db.WithContext(ctx).
		Model(&models.UserSummary{}).
		Select("users.id, users.username, users.full_name, users.profile_picture").
		Joins("JOIN follows ON "+join).
		Where(where, userID).
		Order("follows.created_at ASC, follows.id ASC").
		Scan(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := make([]uint, 0)
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
