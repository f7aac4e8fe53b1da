package service

import (
	"context"
	"errors"
	"testing"

	"aperture/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_AudienceIsSelfPlusFollowing(t *testing.T) {
	t.Parallel()

	follows := noopFollowRepo()
	follows.followingIDsFn = func(_ context.Context, userID uint) ([]uint, error) {
		assert.Equal(t, uint(1), userID)
		return []uint{2, 3}, nil
	}
	posts := noopPostRepo()
	var audience []uint
	posts.listByAuthorsFn = func(_ context.Context, authorIDs []uint, page models.Page, viewerID uint) ([]*models.Post, int64, error) {
		audience = authorIDs
		assert.Equal(t, uint(1), viewerID)
		assert.Equal(t, DefaultFeedLimit, page.Limit)
		return []*models.Post{{ID: 9}}, 1, nil
	}
	svc := NewFeedService(posts, follows)

	result, err := svc.GetFeed(context.Background(), 1, models.NewPage(0, 0, DefaultFeedLimit))
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, audience)
	assert.Equal(t, 1, result.Page)
	assert.False(t, result.HasMore)
	assert.Len(t, result.Posts, 1)
}

func TestFeedService_EmptyFeed(t *testing.T) {
	t.Parallel()

	svc := NewFeedService(noopPostRepo(), noopFollowRepo())
	result, err := svc.GetFeed(context.Background(), 1, models.NewPage(1, 10, DefaultFeedLimit))
	require.NoError(t, err)
	assert.NotNil(t, result.Posts)
	assert.Empty(t, result.Posts)
	assert.Equal(t, int64(0), result.Total)
}

func TestFeedService_FollowLookupError(t *testing.T) {
	t.Parallel()

	repoErr := errors.New("boom")
	follows := noopFollowRepo()
	follows.followingIDsFn = func(_ context.Context, _ uint) ([]uint, error) { return nil, repoErr }
	svc := NewFeedService(noopPostRepo(), follows)

	_, err := svc.GetFeed(context.Background(), 1, models.NewPage(1, 10, DefaultFeedLimit))
	assert.ErrorIs(t, err, repoErr)
}
