package repository

import (
	"context"
	"errors"

	"aperture/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a GORM-backed CommentRepository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Post{}, "Post", comment.PostID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	return wrapTxError(err)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error) {
	var comment models.Comment
	err := withCommentDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("comments.id = ?", id).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, page models.Page, viewerID uint) ([]*models.Comment, int64, error) {
	comments := make([]*models.Comment, 0)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if total == 0 || int64(page.Offset()) >= total {
		return comments, total, nil
	}

	if err := withCommentDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("comments.post_id = ?", postID).
		Order("comments.created_at DESC, comments.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Comment", id)
		}
		return nil
	})
	return wrapTxError(err)
}

func (r *commentRepository) Like(ctx context.Context, commentID, userID uint) (*models.LikeResult, error) {
	return r.toggleLike(ctx, commentID, userID, true)
}

func (r *commentRepository) Unlike(ctx context.Context, commentID, userID uint) (*models.LikeResult, error) {
	return r.toggleLike(ctx, commentID, userID, false)
}

func (r *commentRepository) toggleLike(ctx context.Context, commentID, userID uint, like bool) (*models.LikeResult, error) {
	result := &models.LikeResult{Liked: like}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Comment{}, "Comment", commentID); err != nil {
			return err
		}

		if like {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.CommentLike{CommentID: commentID, UserID: userID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewAlreadyLikedError("Comment")
			}
		} else {
			res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewNotLikedError("Comment")
			}
		}

		return tx.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&result.LikesCount).Error
	})
	if err != nil {
		return nil, wrapTxError(err)
	}
	return result, nil
}
