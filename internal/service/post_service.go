package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"aperture/internal/cache"
	"aperture/internal/middleware"
	"aperture/internal/models"
	"aperture/internal/notifications"
	"aperture/internal/observability"
	"aperture/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultUserPostsLimit = 12
	maxCaptionLen         = 2200
	maxLocationLen        = 100
)

type PostService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	images   ImageStore
	notifier *notifications.Notifier
}

type CreatePostInput struct {
	UserID      uint
	Image       []byte
	ContentType string
	Caption     string
	Location    string
	// Tags is the raw comma-delimited tag list.
	Tags string
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, images ImageStore, notifier *notifications.Notifier) *PostService {
	return &PostService{
		posts:    posts,
		users:    users,
		images:   images,
		notifier: notifier,
	}
}

// CreatePost stores the image first; the post row is only written once the image exists.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost",
		attribute.Int64("user.id", int64(in.UserID)))
	defer func() { observability.EndSpan(span, err) }()

	if len(in.Image) == 0 {
		return nil, models.NewValidationError("Image is required")
	}
	if utf8.RuneCountInString(in.Caption) > maxCaptionLen {
		return nil, models.NewValidationError("Caption cannot exceed 2200 characters")
	}
	location := strings.TrimSpace(in.Location)
	if utf8.RuneCountInString(location) > maxLocationLen {
		return nil, models.NewValidationError("Location cannot exceed 100 characters")
	}

	author, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	stored, err := s.images.Store(ctx, in.Image, in.ContentType)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		UserID:   in.UserID,
		ImageURL: stored.URL,
		ImageKey: stored.Key,
		Caption:  in.Caption,
		Location: location,
		Tags:     models.ParseTags(in.Tags),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.releaseImage(ctx, stored.Key)
		return nil, err
	}

	summary := author.Summary()
	post.Author = &summary
	post.Comments = []*models.Comment{}
	observability.RecordEngagement(observability.ActionPost)
	cache.InvalidateProfile(ctx, in.UserID)
	return post, nil
}

// GetPost returns the post with its comments. Anonymous reads are served from the cache
// with author summaries resolved again on every hit.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (post *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "GetPost",
		attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if viewerID != 0 {
		return s.posts.GetByID(ctx, postID, viewerID)
	}

	post = &models.Post{}
	loaded := false
	err = cache.Aside(ctx, cache.PostKey(postID), post, cache.PostTTL, func() error {
		p, err := s.posts.GetByID(ctx, postID, 0)
		if err != nil {
			return err
		}
		*post = *p
		loaded = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !loaded {
		if err := s.refreshAuthors(ctx, post); err != nil {
			return nil, err
		}
	}
	return post, nil
}

// refreshAuthors replaces the author summaries embedded in a cached post with current ones.
func (s *PostService) refreshAuthors(ctx context.Context, post *models.Post) error {
	ids := []uint{post.UserID}
	for _, c := range post.Comments {
		ids = append(ids, c.UserID)
	}
	summaries, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return err
	}
	if a, ok := summaries[post.UserID]; ok {
		post.Author = &a
	}
	for _, c := range post.Comments {
		if a, ok := summaries[c.UserID]; ok {
			c.Author = &a
		}
	}
	return nil
}

// DeletePost removes the post and everything hanging off it. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, postID, requesterID uint) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "DeletePost",
		attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.posts.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return models.NewForbiddenError("Not authorized to delete this post")
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	s.releaseImage(ctx, post.ImageKey)
	cache.InvalidatePost(ctx, postID)
	cache.InvalidateProfile(ctx, post.UserID)
	return nil
}

// GetUserPosts pages through one author's posts, newest first.
func (s *PostService) GetUserPosts(ctx context.Context, authorID uint, page models.Page, viewerID uint) (result *models.PostPage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "GetUserPosts",
		attribute.Int64("author.id", int64(authorID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	posts, total, err := s.posts.ListByAuthors(ctx, []uint{authorID}, page, viewerID)
	if err != nil {
		return nil, err
	}
	return newPostPage(posts, page, total), nil
}

// LikePost adds userID to the post's likes and notifies the author.
func (s *PostService) LikePost(ctx context.Context, postID, userID uint) (result *models.LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "LikePost",
		attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	result, err = s.posts.Like(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	observability.RecordEngagement(observability.ActionLike)
	cache.InvalidatePost(ctx, postID)

	if post, err := s.posts.GetByID(ctx, postID, 0); err == nil {
		if actor, err := s.users.GetByID(ctx, userID); err == nil {
			notify(ctx, s.notifier, post.UserID,
				notifications.NewEvent(notifications.EventPostLiked, actor.Summary()).WithPost(postID))
		}
	}
	return result, nil
}

// UnlikePost removes userID from the post's likes.
func (s *PostService) UnlikePost(ctx context.Context, postID, userID uint) (result *models.LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "UnlikePost",
		attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	result, err = s.posts.Unlike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	observability.RecordEngagement(observability.ActionUnlike)
	cache.InvalidatePost(ctx, postID)
	return result, nil
}

func (s *PostService) releaseImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Release(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to release image", "image_key", key, "error", err)
	}
}

func newPostPage(posts []*models.Post, page models.Page, total int64) *models.PostPage {
	if posts == nil {
		posts = []*models.Post{}
	}
	return &models.PostPage{
		Posts:   posts,
		HasMore: page.HasMore(total),
		Page:    page.Number,
		Total:   total,
	}
}
