package service

import (
	"context"

	"aperture/internal/models"
	"aperture/internal/observability"
	"aperture/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const DefaultFeedLimit = 10

// FeedService assembles the home feed: the account's own posts plus those of everyone it follows.
type FeedService struct {
	posts   repository.PostRepository
	follows repository.FollowRepository
}

func NewFeedService(posts repository.PostRepository, follows repository.FollowRepository) *FeedService {
	return &FeedService{posts: posts, follows: follows}
}

func (s *FeedService) GetFeed(ctx context.Context, userID uint, page models.Page) (result *models.PostPage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "GetFeed",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int("page", page.Number))
	defer func() { observability.EndSpan(span, err) }()

	following, err := s.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	audience := make([]uint, 0, len(following)+1)
	audience = append(audience, userID)
	audience = append(audience, following...)

	posts, total, err := s.posts.ListByAuthors(ctx, audience, page, userID)
	if err != nil {
		return nil, err
	}
	return newPostPage(posts, page, total), nil
}
