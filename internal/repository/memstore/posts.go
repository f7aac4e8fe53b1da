package memstore

import (
	"context"
	"sort"

	"aperture/internal/models"
)

type postRepository struct {
	db *DB
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[post.UserID]; !ok {
		return models.NewNotFoundError("User", post.UserID)
	}

	r.db.nextPostID++
	now := r.db.timestamp()
	post.ID = r.db.nextPostID
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = models.Tags{}
	}

	stored := *post
	stored.Author = nil
	stored.Comments = nil
	stored.Tags = append(models.Tags{}, post.Tags...)
	r.db.posts[post.ID] = &postRecord{post: stored, likes: make(map[uint]struct{})}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rec, ok := r.db.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	return r.db.postView(rec, viewerID), nil
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, page models.Page, viewerID uint) ([]*models.Post, int64, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	authors := make(map[uint]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	matched := make([]*postRecord, 0)
	for _, rec := range r.db.posts {
		if _, ok := authors[rec.post.UserID]; ok {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].post, matched[j].post
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	total := int64(len(matched))
	posts := make([]*models.Post, 0, page.Limit)
	for i := page.Offset(); i < len(matched) && len(posts) < page.Limit; i++ {
		posts = append(posts, r.db.postView(matched[i], viewerID))
	}
	return posts, total, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[id]; !ok {
		return models.NewNotFoundError("Post", id)
	}
	for cid, c := range r.db.comments {
		if c.comment.PostID == id {
			delete(r.db.comments, cid)
		}
	}
	delete(r.db.posts, id)
	return nil
}

func (r *postRepository) Like(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	return r.toggle(ctx, postID, userID, true)
}

func (r *postRepository) Unlike(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	return r.toggle(ctx, postID, userID, false)
}

func (r *postRepository) toggle(ctx context.Context, postID, userID uint, like bool) (*models.LikeResult, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rec, ok := r.db.posts[postID]
	if !ok {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if err := toggleLike(rec.likes, userID, like, "Post"); err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: like, LikesCount: int64(len(rec.likes))}, nil
}

// toggleLike adds or removes userID from a like set.
func toggleLike(likes map[uint]struct{}, userID uint, like bool, resource string) error {
	_, liked := likes[userID]
	switch {
	case like && liked:
		return models.NewAlreadyLikedError(resource)
	case !like && !liked:
		return models.NewNotLikedError(resource)
	case like:
		likes[userID] = struct{}{}
	default:
		delete(likes, userID)
	}
	return nil
}
