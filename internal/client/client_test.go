package client

import (
	"context"
	"net"
	"testing"
	"time"

	"aperture/internal/config"
	"aperture/internal/models"
	"aperture/internal/notifications"
	"aperture/internal/repository/memstore"
	"aperture/internal/server"
	"aperture/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer serves a fresh in-memory backend on a loopback port.
func startServer(t *testing.T) (*server.Server, string) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env:                  "test",
		JWTSecret:            "client-test-secret",
		JWTTTLHours:          1,
		StoreDriver:          config.StoreMemory,
		UploadDir:            t.TempDir(),
		ImageMaxUploadSizeMB: 5,
	}
	srv := server.NewServerWithDeps(cfg, memstore.NewStore(), rdb)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, "http://" + ln.Addr().String()
}

func register(t *testing.T, baseURL, username string) (*Client, *models.User) {
	t.Helper()
	c := New(baseURL)
	user, err := c.Register(context.Background(), Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		FullName: "Client " + username,
	})
	require.NoError(t, err)
	require.NotEmpty(t, c.Token())
	return c, user
}

func TestClient_RoundTrip(t *testing.T) {
	_, baseURL := startServer(t)
	ctx := context.Background()

	alice, aliceUser := register(t, baseURL, "alice")
	bob, bobUser := register(t, baseURL, "bob")

	counts, err := alice.Follow(ctx, bobUser.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.FollowingCount)
	assert.Equal(t, int64(1), counts.FollowerCount)

	post, err := bob.CreatePost(ctx, NewPost{
		Image:    testutil.TinyPNG(t, 24, 24),
		Filename: "sunset.png",
		Caption:  "sunset",
		Tags:     "sky,#orange",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Tags{"sky", "orange"}, post.Tags)

	feed, err := alice.Feed(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, post.ID, feed.Posts[0].ID)
	assert.False(t, feed.HasMore)

	like, err := alice.LikePost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, like.Liked)
	assert.Equal(t, int64(1), like.LikesCount)

	comment, err := alice.Comment(ctx, post.ID, "lovely")
	require.NoError(t, err)

	comments, err := bob.Comments(ctx, post.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, comments.Comments, 1)
	assert.Equal(t, comment.ID, comments.Comments[0].ID)

	err = bob.DeleteComment(ctx, comment.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	assert.Equal(t, models.CodeForbidden, apiErr.Code)

	users, err := bob.SearchUsers(ctx, "ali")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, aliceUser.ID, users[0].ID)

	profile, err := bob.Profile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.FollowersCount)
	assert.Equal(t, int64(1), profile.PostsCount)

	// A fresh client can log in with the same credentials.
	again := New(baseURL)
	_, err = again.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	me, err := again.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, aliceUser.ID, me.ID)

	require.NoError(t, again.Logout(ctx))
	assert.Empty(t, again.Token())
}

func TestClient_Watch(t *testing.T) {
	srv, baseURL := startServer(t)

	alice, aliceUser := register(t, baseURL, "watcher")
	bob, _ := register(t, baseURL, "follower")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan notifications.Event, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- alice.Watch(ctx, func(e notifications.Event) { events <- e })
	}()

	require.Eventually(t, func() bool {
		return srv.Hub().Connections(aliceUser.ID) == 1
	}, 5*time.Second, 20*time.Millisecond)

	_, err := bob.Follow(context.Background(), aliceUser.ID)
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, notifications.EventNewFollower, e.Type)
		assert.Equal(t, "follower", e.Actor.Username)
		assert.Equal(t, "@follower started following you", DescribeEvent(e))
	case <-time.After(5 * time.Second):
		t.Fatal("no notification received")
	}

	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestClient_WatchRequiresToken(t *testing.T) {
	err := New("http://127.0.0.1:1").Watch(context.Background(), func(notifications.Event) {})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestWatchURL(t *testing.T) {
	c := New("https://api.example.com/")
	c.SetToken("abc")
	u, err := c.WatchURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/api/ws?token=abc", u)
}
