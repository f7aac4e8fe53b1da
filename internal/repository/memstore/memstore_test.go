package memstore

import (
	"context"
	"sync"
	"testing"

	"aperture/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewDemoStore(t *testing.T) {
	store, err := NewDemoStore()
	require.NoError(t, err)
	ctx := context.Background()

	john, err := store.Users.GetByUsername(ctx, "john_doe")
	require.NoError(t, err)
	assert.Equal(t, int64(3), john.FollowersCount)
	assert.Equal(t, int64(3), john.FollowingCount)
	assert.Equal(t, int64(3), john.PostsCount)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(john.Password), []byte(DemoPassword)))

	following, err := store.Follows.FollowingIDs(ctx, john.ID)
	require.NoError(t, err)
	audience := append([]uint{john.ID}, following...)

	posts, total, err := store.Posts.ListByAuthors(ctx, audience, models.NewPage(1, 10, 10), john.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, posts, 10)
	assert.Contains(t, posts[0].Caption, "Beautiful sunset")
	assert.Equal(t, "john_doe", posts[0].Author.Username)
	assert.Equal(t, int64(2), posts[0].CommentsCount)
	require.Len(t, posts[0].Comments, 2)
	assert.Equal(t, "sarah_smith", posts[0].Comments[0].Author.Username)
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt), "feed must be newest first")
		assert.NotEqual(t, "mike_brown", posts[i].Author.Username)
	}
}

func TestParseFixture_Invalid(t *testing.T) {
	_, err := ParseFixture([]byte("users: [unterminated"))
	assert.Error(t, err)

	f, err := ParseFixture([]byte("users:\n  - username: a\n    email: a@example.com\n    fullName: A\nfollows:\n  - [a, ghost]\n"))
	require.NoError(t, err)
	assert.Error(t, NewDB().Load(f))
}

func TestUsers_Uniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Users.Create(ctx, &models.User{Username: "alice", Email: "alice@example.com", FullName: "Alice"}))
	err := store.Users.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", FullName: "Other"})
	assert.True(t, models.HasCode(err, models.CodeConflict))
	err = store.Users.Create(ctx, &models.User{Username: "other", Email: "ALICE@example.com", FullName: "Other"})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	bob := &models.User{Username: "bob", Email: "bob@example.com", FullName: "Bob"}
	require.NoError(t, store.Users.Create(ctx, bob))
	bob.Email = "alice@example.com"
	assert.True(t, models.HasCode(store.Users.UpdateProfile(ctx, bob), models.CodeConflict))
}

func TestUsers_Search(t *testing.T) {
	store, err := NewDemoStore()
	require.NoError(t, err)

	users, err := store.Users.Search(context.Background(), "SMITH", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "sarah_smith", users[0].Username)

	users, err = store.Users.Search(context.Background(), "o", 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alex_jones", users[0].Username)
	assert.Equal(t, "emily_wilson", users[1].Username)
}

func TestPosts_LikesAndCascade(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com", FullName: "Alice"}
	bob := &models.User{Username: "bob", Email: "bob@example.com", FullName: "Bob"}
	require.NoError(t, store.Users.Create(ctx, alice))
	require.NoError(t, store.Users.Create(ctx, bob))

	post := &models.Post{UserID: alice.ID, ImageURL: "/media/x/master.jpg"}
	require.NoError(t, store.Posts.Create(ctx, post))

	res, err := store.Posts.Like(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: true, LikesCount: 1}, res)
	_, err = store.Posts.Like(ctx, post.ID, bob.ID)
	assert.True(t, models.HasCode(err, models.CodeAlreadyLiked))

	c := &models.Comment{PostID: post.ID, UserID: bob.ID, Text: "nice"}
	require.NoError(t, store.Comments.Create(ctx, c))
	err = store.Comments.Create(ctx, &models.Comment{PostID: 99, UserID: bob.ID, Text: "x"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	got, err := store.Posts.GetByID(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, got.Liked)
	assert.Equal(t, int64(1), got.CommentsCount)

	require.NoError(t, store.Posts.Delete(ctx, post.ID))
	_, err = store.Comments.GetByID(ctx, c.ID, 0)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.True(t, models.HasCode(store.Posts.Delete(ctx, post.ID), models.CodeNotFound))
}

func TestComments_ListByPostNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com", FullName: "Alice"}
	require.NoError(t, store.Users.Create(ctx, alice))
	post := &models.Post{UserID: alice.ID, ImageURL: "/media/x/master.jpg"}
	require.NoError(t, store.Posts.Create(ctx, post))
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, store.Comments.Create(ctx, &models.Comment{PostID: post.ID, UserID: alice.ID, Text: text}))
	}

	first, total, err := store.Comments.ListByPost(ctx, post.ID, models.NewPage(1, 2, 20), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, first, 2)
	assert.Equal(t, "three", first[0].Text)
	assert.Equal(t, "two", first[1].Text)

	second, _, err := store.Comments.ListByPost(ctx, post.ID, models.NewPage(2, 2, 20), 0)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "one", second[0].Text)

	beyond, _, err := store.Comments.ListByPost(ctx, post.ID, models.NewPage(3, 2, 20), 0)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	detail, err := store.Posts.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 3)
	assert.Equal(t, "one", detail.Comments[0].Text)
}

func TestPosts_ConcurrentLikesKeepCountEqualToSet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	author := &models.User{Username: "author", Email: "author@example.com", FullName: "Author"}
	require.NoError(t, store.Users.Create(ctx, author))
	post := &models.Post{UserID: author.ID, ImageURL: "/media/x/master.jpg"}
	require.NoError(t, store.Posts.Create(ctx, post))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			_, _ = store.Posts.Like(ctx, post.ID, uid)
			_, _ = store.Posts.Like(ctx, post.ID, uid)
		}(uint(100 + i%10))
	}
	wg.Wait()

	got, err := store.Posts.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.LikesCount)
}

func TestFollows_OrderAndErrors(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, store.Users.Create(ctx, &models.User{Username: name, Email: name + "@example.com", FullName: name}))
	}

	require.NoError(t, store.Follows.Follow(ctx, 3, 1))
	require.NoError(t, store.Follows.Follow(ctx, 2, 1))
	assert.True(t, models.HasCode(store.Follows.Follow(ctx, 2, 1), models.CodeAlreadyFollowing))

	followers, err := store.Follows.Followers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, "c", followers[0].Username)
	assert.Equal(t, "b", followers[1].Username)

	counts, err := store.Follows.Counts(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, models.FollowCounts{FollowingCount: 1, FollowerCount: 2}, counts)

	require.NoError(t, store.Follows.Unfollow(ctx, 2, 1))
	assert.True(t, models.HasCode(store.Follows.Unfollow(ctx, 2, 1), models.CodeNotFollowing))
}
