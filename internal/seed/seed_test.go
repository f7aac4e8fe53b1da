package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aperture/internal/config"
	"aperture/internal/models"
	"aperture/internal/repository/memstore"
	"aperture/internal/service"
	"aperture/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsernameFor(t *testing.T) {
	tests := []struct {
		first, last string
		n           int
		want        string
	}{
		{"Ana", "Lopez", 1, "ana.lopez_1"},
		{"Zoë", "O'Neil", 12, "zo.oneil_12"},
		{"Bartholomew", "Featherstonehaugh", 123, "bartholomew.featherstoneha_123"},
	}
	for _, tt := range tests {
		got := usernameFor(tt.first, tt.last, tt.n)
		assert.Equal(t, tt.want, got)
		assert.LessOrEqual(t, len(got), 30)
		assert.NoError(t, validation.ValidateUsername(got))
	}
}

func TestFactory_Deterministic(t *testing.T) {
	a := NewFactory(42, "")
	b := NewFactory(42, "")
	assert.Equal(t, a.RegisterInput(1), b.RegisterInput(1))
	assert.Equal(t, defaultPassword, a.RegisterInput(2).Password)

	img, err := a.Image(16, 16)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(img), "\x89PNG"))
}

func TestSeeder_Run(t *testing.T) {
	store := memstore.NewStore()
	images := service.NewImageService(&config.Config{UploadDir: t.TempDir()})

	opts := Options{
		NumUsers:        4,
		PostsPerUser:    2,
		FollowsPerUser:  2,
		CommentsPerPost: 1,
		LikeChance:      1,
		ImageSize:       32,
		RandSeed:        7,
	}
	summary, err := NewSeeder(store, images, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Users)
	assert.Equal(t, 8, summary.Posts)
	assert.Equal(t, 8, summary.Comments)
	assert.Equal(t, 32, summary.Likes)
	assert.LessOrEqual(t, summary.Follows, 8)

	ctx := context.Background()
	users := service.NewUserService(store.Users, store.Follows)
	first, err := store.Users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Bio)
	assert.Equal(t, int64(2), first.PostsCount)

	_, err = users.Authenticate(ctx, first.Email, defaultPassword)
	require.NoError(t, err)

	page, err := service.NewPostService(store.Posts, store.Users, images, nil).
		GetUserPosts(ctx, first.ID, models.NewPage(1, 10, 10), 0)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	for _, p := range page.Posts {
		assert.Equal(t, int64(4), p.LikesCount)
		rel := strings.TrimPrefix(p.ImageURL, service.MediaPrefix+"/")
		_, statErr := os.Stat(filepath.Join(images.UploadDir(), rel))
		assert.NoError(t, statErr)
	}
}
