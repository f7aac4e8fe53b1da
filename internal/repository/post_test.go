package repository

import (
	"context"
	"regexp"
	"testing"

	"aperture/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_GetByIDWithDetails(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	post := createPost(t, posts, alice.ID, "sunset")

	_, err := posts.Like(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: post.ID, UserID: bob.ID, Text: "first"}))
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: post.ID, UserID: alice.ID, Text: "second"}))

	got, err := posts.GetByID(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "sunset", got.Caption)
	assert.Equal(t, models.Tags{"go"}, got.Tags)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Username)
	assert.Equal(t, int64(1), got.LikesCount)
	assert.Equal(t, int64(2), got.CommentsCount)
	assert.True(t, got.Liked)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first", got.Comments[0].Text)
	assert.Equal(t, "bob", got.Comments[0].Author.Username)
	assert.Equal(t, "second", got.Comments[1].Text)

	asAuthor, err := posts.GetByID(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, asAuthor.Liked)

	anonymous, err := posts.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.False(t, anonymous.Liked)

	_, err = posts.GetByID(ctx, 999, 0)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_ListByAuthors(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	carol := createUser(t, users, "carol")

	createPost(t, posts, alice.ID, "a1")
	createPost(t, posts, bob.ID, "b1")
	createPost(t, posts, carol.ID, "c1")
	createPost(t, posts, alice.ID, "a2")

	page1, total, err := posts.ListByAuthors(ctx, []uint{alice.ID, bob.ID}, models.NewPage(1, 2, 10), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page1, 2)
	assert.Equal(t, "a2", page1[0].Caption)
	assert.Equal(t, "b1", page1[1].Caption)
	assert.NotNil(t, page1[0].Comments)

	page2, _, err := posts.ListByAuthors(ctx, []uint{alice.ID, bob.ID}, models.NewPage(2, 2, 10), alice.ID)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "a1", page2[0].Caption)

	beyond, total, err := posts.ListByAuthors(ctx, []uint{alice.ID, bob.ID}, models.NewPage(5, 2, 10), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, beyond)

	none, total, err := posts.ListByAuthors(ctx, nil, models.NewPage(1, 10, 10), alice.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, none)
}

func TestPostRepository_LikeUnlike(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	post := createPost(t, posts, alice.ID, "p")

	res, err := posts.Like(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: true, LikesCount: 1}, res)

	_, err = posts.Like(ctx, post.ID, bob.ID)
	assert.True(t, models.HasCode(err, models.CodeAlreadyLiked))

	res, err = posts.Like(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.LikesCount)

	res, err = posts.Unlike(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: false, LikesCount: 1}, res)

	_, err = posts.Unlike(ctx, post.ID, bob.ID)
	assert.True(t, models.HasCode(err, models.CodeNotLiked))

	_, err = posts.Like(ctx, 999, bob.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	post := createPost(t, posts, alice.ID, "p")
	other := createPost(t, posts, alice.ID, "keep")

	_, err := posts.Like(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	c := &models.Comment{PostID: post.ID, UserID: bob.ID, Text: "nice"}
	require.NoError(t, comments.Create(ctx, c))
	_, err = comments.Like(ctx, c.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, posts.Delete(ctx, post.ID))

	var n int64
	require.NoError(t, db.Model(&models.PostLike{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.CommentLike{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = posts.GetByID(ctx, other.ID, 0)
	assert.NoError(t, err)

	err = posts.Delete(ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	aliceProfile, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), aliceProfile.PostsCount)
}

func TestPostRepository_LikeInsertShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "post_likes" ("post_id","user_id","created_at") VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`)).
		WithArgs(7, 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Like(context.Background(), 7, 3)
	assert.True(t, models.HasCode(err, models.CodeAlreadyLiked))
	assert.NoError(t, mock.ExpectationsWereMet())
}
