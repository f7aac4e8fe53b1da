package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"aperture/internal/config"
	"aperture/internal/repository"
	"aperture/internal/repository/memstore"
	"aperture/internal/testutil"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-handlers"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                 "0",
		Env:                  "test",
		JWTSecret:            testSecret,
		JWTTTLHours:          1,
		StoreDriver:          config.StoreMemory,
		UploadDir:            t.TempDir(),
		ImageMaxUploadSizeMB: 5,
	}
}

// newTestServer builds a server over an empty in-memory store and no Redis.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	return newTestServerWithStore(t, memstore.NewStore())
}

func newTestServerWithStore(t *testing.T, store *repository.Store) (*Server, *fiber.App) {
	t.Helper()
	s := NewServerWithDeps(testConfig(t), store, nil)
	return s, s.App()
}

type apiResponse struct {
	Status int
	Body   map[string]any
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) apiResponse {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := apiResponse{Status: resp.StatusCode, Body: map[string]any{}}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.Body), "body: %s", raw)
	}
	return out
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doRequest(t, app, req)
}

// registerUser creates an account and returns its token and id.
func registerUser(t *testing.T, app *fiber.App, username string) (string, uint) {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"fullName": "Test " + username,
	})
	require.Equal(t, http.StatusCreated, resp.Status, "register %s: %v", username, resp.Body)
	user := resp.Body["user"].(map[string]any)
	return resp.Body["token"].(string), uint(user["id"].(float64))
}

// createPost uploads a small PNG as token's owner and returns the post id.
func createPost(t *testing.T, app *fiber.App, token, caption string) uint {
	t.Helper()
	body, contentType := testutil.PostForm(t, testutil.TinyPNG(t, 32, 32), map[string]string{
		"caption":  caption,
		"location": "Lisbon",
		"tags":     "travel, film",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := doRequest(t, app, req)
	require.Equal(t, http.StatusCreated, resp.Status, "create post: %v", resp.Body)
	post := resp.Body["post"].(map[string]any)
	return uint(post["id"].(float64))
}

func urlf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
