package memstore

import (
	"context"

	"aperture/internal/models"
)

type commentRepository struct {
	db *DB
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[comment.PostID]; !ok {
		return models.NewNotFoundError("Post", comment.PostID)
	}

	r.db.nextCommentID++
	comment.ID = r.db.nextCommentID
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.db.timestamp()
	}

	stored := *comment
	stored.Author = nil
	r.db.comments[comment.ID] = &commentRecord{comment: stored, likes: make(map[uint]struct{})}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rec, ok := r.db.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return r.db.commentView(rec, viewerID), nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, page models.Page, viewerID uint) ([]*models.Comment, int64, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	recs := r.db.postComments(postID)
	out := make([]*models.Comment, 0, page.Limit)
	for i := len(recs) - 1 - page.Offset(); i >= 0 && len(out) < page.Limit; i-- {
		out = append(out, r.db.commentView(recs[i], viewerID))
	}
	return out, int64(len(recs)), nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.comments[id]; !ok {
		return models.NewNotFoundError("Comment", id)
	}
	delete(r.db.comments, id)
	return nil
}

func (r *commentRepository) Like(ctx context.Context, commentID, userID uint) (*models.LikeResult, error) {
	return r.toggle(ctx, commentID, userID, true)
}

func (r *commentRepository) Unlike(ctx context.Context, commentID, userID uint) (*models.LikeResult, error) {
	return r.toggle(ctx, commentID, userID, false)
}

func (r *commentRepository) toggle(ctx context.Context, commentID, userID uint, like bool) (*models.LikeResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rec, ok := r.db.comments[commentID]
	if !ok {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	if err := toggleLike(rec.likes, userID, like, "Comment"); err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: like, LikesCount: int64(len(rec.likes))}, nil
}
