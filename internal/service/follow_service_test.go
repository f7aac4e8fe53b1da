package service

import (
	"context"
	"testing"
	"time"

	"aperture/internal/models"
	"aperture/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_Follow(t *testing.T) {
	t.Parallel()

	follows := noopFollowRepo()
	var edge [2]uint
	follows.followFn = func(_ context.Context, followerID, followeeID uint) error {
		edge = [2]uint{followerID, followeeID}
		return nil
	}
	follows.countsFn = func(_ context.Context, _, _ uint) (models.FollowCounts, error) {
		return models.FollowCounts{FollowingCount: 3, FollowerCount: 5}, nil
	}
	svc := NewFollowService(noopUserRepo(), follows, nil)

	counts, err := svc.Follow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, [2]uint{1, 2}, edge)
	assert.Equal(t, models.FollowCounts{FollowingCount: 3, FollowerCount: 5}, counts)
}

func TestFollowService_FollowSelf(t *testing.T) {
	t.Parallel()

	follows := noopFollowRepo()
	follows.followFn = func(_ context.Context, _, _ uint) error {
		t.Fatal("self-follow must not reach the repository")
		return nil
	}
	svc := NewFollowService(noopUserRepo(), follows, nil)

	_, err := svc.Follow(context.Background(), 4, 4)
	assertValidationError(t, err)
}

func TestFollowService_UnknownTarget(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	svc := NewFollowService(users, noopFollowRepo(), nil)

	_, err := svc.Follow(context.Background(), 1, 99)
	assertAppError(t, err, models.CodeNotFound)
	_, err = svc.Unfollow(context.Background(), 1, 99)
	assertAppError(t, err, models.CodeNotFound)
}

func TestFollowService_StateErrorsPropagate(t *testing.T) {
	t.Parallel()

	follows := noopFollowRepo()
	follows.followFn = func(_ context.Context, _, _ uint) error { return models.NewAlreadyFollowingError() }
	follows.unfollowFn = func(_ context.Context, _, _ uint) error { return models.NewNotFollowingError() }
	svc := NewFollowService(noopUserRepo(), follows, nil)

	_, err := svc.Follow(context.Background(), 1, 2)
	assertAppError(t, err, models.CodeAlreadyFollowing)
	_, err = svc.Unfollow(context.Background(), 1, 2)
	assertAppError(t, err, models.CodeNotFollowing)
}

func TestFollowService_NotifiesTarget(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := notifications.NewNotifier(rdb)
	received := make(chan string, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel, payload string) {
		assert.Equal(t, notifications.UserChannel(2), channel)
		received <- payload
	}))

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Username: map[uint]string{1: "john_doe", 2: "sarah_smith"}[id]}, nil
	}
	svc := NewFollowService(users, noopFollowRepo(), n)

	_, err = svc.Follow(ctx, 1, 2)
	require.NoError(t, err)

	select {
	case payload := <-received:
		var ev notifications.Event
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		assert.Equal(t, notifications.EventNewFollower, ev.Type)
		assert.Equal(t, "john_doe", ev.Actor.Username)
		assert.Nil(t, ev.PostID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected new_follower notification")
	}
}
