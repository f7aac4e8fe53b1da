package repository

import (
	"context"
	"errors"

	"aperture/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a GORM-backed PostRepository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.Tags == nil {
		post.Tags = models.Tags{}
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := preloadComments(withPostDetails(r.db.WithContext(ctx), viewerID), viewerID).
		Preload("Author").
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	if post.Comments == nil {
		post.Comments = []*models.Comment{}
	}
	return &post, nil
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, page models.Page, viewerID uint) ([]*models.Post, int64, error) {
	posts := make([]*models.Post, 0)
	if len(authorIDs) == 0 {
		return posts, 0, nil
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id IN ?", authorIDs).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if total == 0 || int64(page.Offset()) >= total {
		return posts, total, nil
	}

	err := preloadComments(withPostDetails(r.db.WithContext(ctx), viewerID), viewerID).
		Preload("Author").
		Where("posts.user_id IN ?", authorIDs).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	for _, p := range posts {
		if p.Comments == nil {
			p.Comments = []*models.Comment{}
		}
	}
	return posts, total, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	return wrapTxError(err)
}

func (r *postRepository) Like(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	return r.toggleLike(ctx, postID, userID, true)
}

func (r *postRepository) Unlike(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	return r.toggleLike(ctx, postID, userID, false)
}

func (r *postRepository) toggleLike(ctx context.Context, postID, userID uint, like bool) (*models.LikeResult, error) {
	result := &models.LikeResult{Liked: like}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Post{}, "Post", postID); err != nil {
			return err
		}

		if like {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.PostLike{PostID: postID, UserID: userID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewAlreadyLikedError("Post")
			}
		} else {
			res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewNotLikedError("Post")
			}
		}

		return tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&result.LikesCount).Error
	})
	if err != nil {
		return nil, wrapTxError(err)
	}
	return result, nil
}

// requireRow returns a NotFound error when no row of model has the given id.
func requireRow(tx *gorm.DB, model any, resource string, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.NewNotFoundError(resource, id)
	}
	return nil
}

// wrapTxError passes AppErrors through and wraps anything else as internal.
func wrapTxError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
