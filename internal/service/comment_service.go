package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"aperture/internal/cache"
	"aperture/internal/models"
	"aperture/internal/notifications"
	"aperture/internal/observability"
	"aperture/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultCommentLimit = 20
	maxCommentLen       = 500
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	notifier *notifications.Notifier
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, users repository.UserRepository, notifier *notifications.Notifier) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
		notifier: notifier,
	}
}

// CreateComment adds a comment to postID and notifies the post's author.
func (s *CommentService) CreateComment(ctx context.Context, postID, userID uint, text string) (comment *models.Comment, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "CreateComment",
		attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment cannot exceed 500 characters")
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment = &models.Comment{PostID: postID, UserID: userID, Text: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	summary := author.Summary()
	comment.Author = &summary

	observability.RecordEngagement(observability.ActionComment)
	cache.InvalidatePost(ctx, postID)

	if post, err := s.posts.GetByID(ctx, postID, 0); err == nil {
		notify(ctx, s.notifier, post.UserID,
			notifications.NewEvent(notifications.EventCommentCreated, summary).WithPost(postID).WithComment(comment.ID))
	}
	return comment, nil
}

// DeleteComment removes the comment and its likes. Only its author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, requesterID uint) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "DeleteComment",
		attribute.Int64("comment.id", int64(commentID)))
	defer func() { observability.EndSpan(span, err) }()

	comment, err := s.comments.GetByID(ctx, commentID, 0)
	if err != nil {
		return err
	}
	if comment.UserID != requesterID {
		return models.NewForbiddenError("Not authorized to delete this comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

// ListComments pages through a post's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint, page models.Page, viewerID uint) (result *models.CommentPage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "ListComments",
		attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	comments, total, err := s.comments.ListByPost(ctx, postID, page, viewerID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return &models.CommentPage{
		Comments: comments,
		HasMore:  page.HasMore(total),
		Page:     page.Number,
		Total:    total,
	}, nil
}

// LikeComment adds userID to the comment's likes and notifies its author.
func (s *CommentService) LikeComment(ctx context.Context, commentID, userID uint) (result *models.LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "LikeComment",
		attribute.Int64("comment.id", int64(commentID)))
	defer func() { observability.EndSpan(span, err) }()

	result, err = s.comments.Like(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	observability.RecordEngagement(observability.ActionLike)

	if comment, err := s.comments.GetByID(ctx, commentID, 0); err == nil {
		cache.InvalidatePost(ctx, comment.PostID)
		if actor, err := s.users.GetByID(ctx, userID); err == nil {
			notify(ctx, s.notifier, comment.UserID,
				notifications.NewEvent(notifications.EventCommentLiked, actor.Summary()).WithPost(comment.PostID).WithComment(commentID))
		}
	}
	return result, nil
}

// UnlikeComment removes userID from the comment's likes.
func (s *CommentService) UnlikeComment(ctx context.Context, commentID, userID uint) (result *models.LikeResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "UnlikeComment",
		attribute.Int64("comment.id", int64(commentID)))
	defer func() { observability.EndSpan(span, err) }()

	result, err = s.comments.Unlike(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	observability.RecordEngagement(observability.ActionUnlike)

	if comment, err := s.comments.GetByID(ctx, commentID, 0); err == nil {
		cache.InvalidatePost(ctx, comment.PostID)
	}
	return result, nil
}
