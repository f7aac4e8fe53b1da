package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"aperture/internal/models"
	"aperture/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowPostCommentScenario(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	xToken, _ := registerUser(t, app, "xavier")
	yToken, yID := registerUser(t, app, "yasmin")

	// X follows Y.
	resp := doJSON(t, app, http.MethodPost, urlf("/api/users/%d/follow", yID), xToken, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, float64(1), resp.Body["followingCount"])
	assert.Equal(t, float64(1), resp.Body["followerCount"])

	// Y posts; the post shows up in X's feed.
	postID := createPost(t, app, yToken, "golden hour")

	resp = doJSON(t, app, http.MethodGet, "/api/posts/feed", xToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	posts := resp.Body["posts"].([]any)
	require.Len(t, posts, 1)
	feedPost := posts[0].(map[string]any)
	assert.Equal(t, float64(postID), feedPost["id"])
	assert.Equal(t, float64(yID), feedPost["authorId"])
	assert.Equal(t, []any{"travel", "film"}, feedPost["tags"])

	// X comments.
	resp = doJSON(t, app, http.MethodPost, urlf("/api/posts/%d/comments", postID), xToken, map[string]string{"text": "  stunning  "})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Body)
	comment := resp.Body["comment"].(map[string]any)
	assert.Equal(t, "stunning", comment["text"])
	commentID := uint(comment["id"].(float64))

	resp = doJSON(t, app, http.MethodGet, urlf("/api/posts/%d", postID), "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, float64(1), resp.Body["post"].(map[string]any)["commentsCount"])

	// Y may not delete X's comment.
	resp = doJSON(t, app, http.MethodDelete, urlf("/api/comments/%d", commentID), yToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = doJSON(t, app, http.MethodDelete, urlf("/api/comments/%d", commentID), xToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doJSON(t, app, http.MethodGet, urlf("/api/posts/%d", postID), "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, float64(0), resp.Body["post"].(map[string]any)["commentsCount"])

	// Unfollowing removes Y's posts from X's feed.
	resp = doJSON(t, app, http.MethodDelete, urlf("/api/users/%d/follow", yID), xToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, float64(0), resp.Body["followingCount"])

	resp = doJSON(t, app, http.MethodGet, "/api/posts/feed", xToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.Body["posts"])
}

func TestLikePost(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	ownerToken, _ := registerUser(t, app, "owner")
	fanToken, _ := registerUser(t, app, "fan")
	postID := createPost(t, app, ownerToken, "")

	resp := doJSON(t, app, http.MethodPost, urlf("/api/posts/%d/like", postID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, true, resp.Body["liked"])
	assert.Equal(t, float64(1), resp.Body["likesCount"])

	resp = doJSON(t, app, http.MethodPost, urlf("/api/posts/%d/like", postID), fanToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, models.CodeAlreadyLiked, resp.Body["code"])

	// The viewer's liked flag follows the token on public routes.
	resp = doJSON(t, app, http.MethodGet, urlf("/api/posts/%d", postID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, true, resp.Body["post"].(map[string]any)["liked"])

	resp = doJSON(t, app, http.MethodDelete, urlf("/api/posts/%d/like", postID), fanToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, false, resp.Body["liked"])
	assert.Equal(t, float64(0), resp.Body["likesCount"])

	resp = doJSON(t, app, http.MethodDelete, urlf("/api/posts/%d/like", postID), fanToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, models.CodeNotLiked, resp.Body["code"])
}

func TestDeletePost_OnlyAuthor(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)

	xToken, _ := registerUser(t, app, "author")
	yToken, _ := registerUser(t, app, "stranger")
	postID := createPost(t, app, xToken, "mine")

	resp := doJSON(t, app, http.MethodGet, urlf("/api/posts/%d", postID), "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	imageURL := resp.Body["post"].(map[string]any)["imageUrl"].(string)

	img, err := app.Test(httptest.NewRequest(http.MethodGet, imageURL, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, img.StatusCode)
	_ = img.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, urlf("/api/posts/%d", postID), yToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.Equal(t, models.CodeForbidden, resp.Body["code"])

	resp = doJSON(t, app, http.MethodDelete, urlf("/api/posts/%d", postID), xToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doJSON(t, app, http.MethodGet, urlf("/api/posts/%d", postID), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	img, err = app.Test(httptest.NewRequest(http.MethodGet, imageURL, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, img.StatusCode)
	_ = img.Body.Close()
	assert.NotEmpty(t, s.images.UploadDir())
}

func TestCreatePost_Validation(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)
	token, _ := registerUser(t, app, "poster")

	t.Run("missing image", func(t *testing.T) {
		body, contentType := testutil.PostForm(t, nil, map[string]string{"caption": "no picture"})
		req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := doRequest(t, app, req)
		assert.Equal(t, http.StatusBadRequest, resp.Status)
		assert.Equal(t, "Image is required", resp.Body["message"])
	})

	t.Run("not an image", func(t *testing.T) {
		body, contentType := testutil.PostForm(t, []byte("plain text pretending"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := doRequest(t, app, req)
		assert.Equal(t, http.StatusBadRequest, resp.Status)
		assert.Equal(t, models.CodeValidation, resp.Body["code"])
	})

	t.Run("unauthenticated", func(t *testing.T) {
		body, contentType := testutil.PostForm(t, testutil.TinyPNG(t, 8, 8), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
		req.Header.Set("Content-Type", contentType)
		resp := doRequest(t, app, req)
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
	})
}

func TestFeedPagination(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)
	token, id := registerUser(t, app, "prolific")

	var ids []uint
	for i := 0; i < 3; i++ {
		ids = append(ids, createPost(t, app, token, urlf("post %d", i)))
	}

	resp := doJSON(t, app, http.MethodGet, "/api/posts/feed?page=1&limit=2", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	posts := resp.Body["posts"].([]any)
	require.Len(t, posts, 2)
	assert.Equal(t, float64(ids[2]), posts[0].(map[string]any)["id"])
	assert.Equal(t, float64(ids[1]), posts[1].(map[string]any)["id"])
	assert.Equal(t, true, resp.Body["hasMore"])
	assert.Equal(t, float64(3), resp.Body["total"])

	resp = doJSON(t, app, http.MethodGet, "/api/posts/feed?page=2&limit=2", token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	posts = resp.Body["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, float64(ids[0]), posts[0].(map[string]any)["id"])
	assert.Equal(t, false, resp.Body["hasMore"])

	resp = doJSON(t, app, http.MethodGet, urlf("/api/posts/user/%d?limit=1", id), "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, resp.Body["posts"], 1)
	assert.Equal(t, true, resp.Body["hasMore"])

	resp = doJSON(t, app, http.MethodGet, "/api/posts/user/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}
