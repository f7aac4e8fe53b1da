package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedProfile struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rdb.AddHook(metricsHook{})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedProfile) func() error {
		return func() error {
			calls++
			*dest = cachedProfile{ID: 1, Username: "john_doe"}
			return nil
		}
	}

	var first cachedProfile
	require.NoError(t, Aside(ctx, ProfileKey(1), &first, ProfileTTL, fetch(&first)))
	assert.Equal(t, "john_doe", first.Username)
	assert.True(t, mr.Exists("profile:1"))

	var second cachedProfile
	require.NoError(t, Aside(ctx, ProfileKey(1), &second, ProfileTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second read is served from cache")

	mr.FastForward(ProfileTTL + time.Second)
	var third cachedProfile
	require.NoError(t, Aside(ctx, ProfileKey(1), &third, ProfileTTL, fetch(&third)))
	assert.Equal(t, 2, calls, "expired entry is refetched")
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("not found")

	var dest cachedProfile
	err := Aside(context.Background(), PostKey(9), &dest, PostTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("post:9"))
}

func TestAside_DisabledCacheCallsFetch(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest cachedProfile
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), ProfileKey(1), &dest, ProfileTTL, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownFallsBackToFetch(t *testing.T) {
	mr := setupMiniredis(t)
	mr.Close()

	called := false
	var dest cachedProfile
	err := Aside(context.Background(), ProfileKey(2), &dest, ProfileTTL, func() error {
		called = true
		dest.ID = 2
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, uint(2), dest.ID)
}

func TestInvalidate(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, ProfileKey(1), cachedProfile{ID: 1}, time.Minute))
	require.NoError(t, SetJSON(ctx, ProfileKey(2), cachedProfile{ID: 2}, time.Minute))
	require.NoError(t, SetJSON(ctx, PostKey(3), cachedProfile{ID: 3}, time.Minute))

	InvalidateProfile(ctx, 1, 2)
	InvalidatePost(ctx, 3)

	assert.False(t, mr.Exists("profile:1"))
	assert.False(t, mr.Exists("profile:2"))
	assert.False(t, mr.Exists("post:3"))
}

func TestRevokeToken(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	revoked, err := IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.TTL("blacklist:jti-1") > 0)

	// Already-expired tokens need no entry.
	require.NoError(t, RevokeToken(ctx, "jti-2", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("blacklist:jti-2"))

	mr.FastForward(2 * time.Hour)
	revoked, err = IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestNewClient_ParsesURL(t *testing.T) {
	c, err := NewClient("redis://localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()

	_, err = NewClient("redis://[bad")
	assert.Error(t, err)
}
