package service

import (
	"context"

	"aperture/internal/cache"
	"aperture/internal/models"
	"aperture/internal/notifications"
	"aperture/internal/observability"
	"aperture/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type FollowService struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	notifier *notifications.Notifier
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository, notifier *notifications.Notifier) *FollowService {
	return &FollowService{users: users, follows: follows, notifier: notifier}
}

// Follow makes followerID follow targetID and returns both updated counts.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) (counts models.FollowCounts, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FollowService", "Follow",
		attribute.Int64("follower.id", int64(followerID)),
		attribute.Int64("target.id", int64(targetID)))
	defer func() { observability.EndSpan(span, err) }()

	if followerID == targetID {
		return counts, models.NewValidationError("You cannot follow yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return counts, err
	}
	if err := s.follows.Follow(ctx, followerID, targetID); err != nil {
		return counts, err
	}
	observability.RecordEngagement(observability.ActionFollow)
	cache.InvalidateProfile(ctx, followerID, targetID)

	if follower, err := s.users.GetByID(ctx, followerID); err == nil {
		notify(ctx, s.notifier, target.ID, notifications.NewEvent(notifications.EventNewFollower, follower.Summary()))
	}
	return s.follows.Counts(ctx, followerID, targetID)
}

// Unfollow removes the edge from followerID to targetID and returns both updated counts.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) (counts models.FollowCounts, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FollowService", "Unfollow",
		attribute.Int64("follower.id", int64(followerID)),
		attribute.Int64("target.id", int64(targetID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return counts, err
	}
	if err := s.follows.Unfollow(ctx, followerID, targetID); err != nil {
		return counts, err
	}
	observability.RecordEngagement(observability.ActionUnfollow)
	cache.InvalidateProfile(ctx, followerID, targetID)
	return s.follows.Counts(ctx, followerID, targetID)
}
