package client

import (
	"context"
	"net/http"
	"net/url"

	"aperture/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Registration is the body of POST /auth/register.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// ProfileUpdate changes only the non-nil fields.
type ProfileUpdate struct {
	FullName       *string `json:"fullName,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	Email          *string `json:"email,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

// NewPost is a multipart post upload.
type NewPost struct {
	Image    []byte
	Filename string
	Caption  string
	Location string
	Tags     string
}

type authEnvelope struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

type likeEnvelope struct {
	models.LikeResult
}

type followEnvelope struct {
	models.FollowCounts
}

// Register creates an account and keeps its token.
func (c *Client) Register(ctx context.Context, in Registration) (*models.User, error) {
	var out authEnvelope
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: in}, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return out.User, nil
}

// Login authenticates and keeps the token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out authEnvelope
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: body}, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return out.User, nil
}

// Verify returns the account behind the current token.
func (c *Client) Verify(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/verify"}, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout revokes the current token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// SearchUsers matches q against usernames and full names.
func (c *Client) SearchUsers(ctx context.Context, q string) ([]models.UserSummary, error) {
	var out struct {
		Users []models.UserSummary `json:"users"`
	}
	req := request{method: http.MethodGet, path: "/users/search", query: url.Values{"q": {q}}}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// Profile returns a profile by username.
func (c *Client) Profile(ctx context.Context, username string) (*models.Profile, error) {
	var out struct {
		User *models.Profile `json:"user"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/" + url.PathEscape(username)}, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Followers lists the accounts following id.
func (c *Client) Followers(ctx context.Context, id uint) ([]models.UserSummary, error) {
	var out struct {
		Followers []models.UserSummary `json:"followers"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/users/%d/followers", id)}, &out); err != nil {
		return nil, err
	}
	return out.Followers, nil
}

// Following lists the accounts id follows.
func (c *Client) Following(ctx context.Context, id uint) ([]models.UserSummary, error) {
	var out struct {
		Following []models.UserSummary `json:"following"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/users/%d/following", id)}, &out); err != nil {
		return nil, err
	}
	return out.Following, nil
}

// UpdateProfile applies a partial profile update.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, request{method: http.MethodPut, path: "/users/profile", body: in}, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Follow follows id.
func (c *Client) Follow(ctx context.Context, id uint) (*models.FollowCounts, error) {
	var out followEnvelope
	if err := c.do(ctx, request{method: http.MethodPost, path: idPath("/users/%d/follow", id)}, &out); err != nil {
		return nil, err
	}
	return &out.FollowCounts, nil
}

// Unfollow unfollows id.
func (c *Client) Unfollow(ctx context.Context, id uint) (*models.FollowCounts, error) {
	var out followEnvelope
	if err := c.do(ctx, request{method: http.MethodDelete, path: idPath("/users/%d/follow", id)}, &out); err != nil {
		return nil, err
	}
	return &out.FollowCounts, nil
}

// Feed returns a page of the home feed. Zero page or limit uses the server default.
func (c *Client) Feed(ctx context.Context, page, limit int) (*models.PostPage, error) {
	var out models.PostPage
	req := request{method: http.MethodGet, path: "/posts/feed", query: pageQuery(page, limit)}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserPosts returns a page of one account's posts.
func (c *Client) UserPosts(ctx context.Context, userID uint, page, limit int) (*models.PostPage, error) {
	var out models.PostPage
	req := request{method: http.MethodGet, path: idPath("/posts/user/%d", userID), query: pageQuery(page, limit)}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Post returns a post with its comments.
func (c *Client) Post(ctx context.Context, id uint) (*models.Post, error) {
	var out struct {
		Post *models.Post `json:"post"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: idPath("/posts/%d", id)}, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

// CreatePost uploads an image post.
func (c *Client) CreatePost(ctx context.Context, in NewPost) (*models.Post, error) {
	name := in.Filename
	if name == "" {
		name = "image"
	}
	form := &multipartBody{
		fields: map[string]string{"caption": in.Caption, "location": in.Location, "tags": in.Tags},
		files:  []*fiber.FormFile{{Fieldname: "image", Name: name, Content: in.Image}},
	}
	var out struct {
		Post *models.Post `json:"post"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/posts", form: form}, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

// DeletePost deletes one of the caller's posts.
func (c *Client) DeletePost(ctx context.Context, id uint) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/posts/%d", id)}, nil)
}

// LikePost likes a post.
func (c *Client) LikePost(ctx context.Context, id uint) (*models.LikeResult, error) {
	return c.like(ctx, http.MethodPost, idPath("/posts/%d/like", id))
}

// UnlikePost removes the caller's like.
func (c *Client) UnlikePost(ctx context.Context, id uint) (*models.LikeResult, error) {
	return c.like(ctx, http.MethodDelete, idPath("/posts/%d/like", id))
}

// Comments returns a page of a post's comments, newest first.
func (c *Client) Comments(ctx context.Context, postID uint, page, limit int) (*models.CommentPage, error) {
	var out models.CommentPage
	req := request{method: http.MethodGet, path: idPath("/posts/%d/comments", postID), query: pageQuery(page, limit)}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Comment adds a comment to a post.
func (c *Client) Comment(ctx context.Context, postID uint, text string) (*models.Comment, error) {
	var out struct {
		Comment *models.Comment `json:"comment"`
	}
	req := request{method: http.MethodPost, path: idPath("/posts/%d/comments", postID), body: map[string]string{"text": text}}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Comment, nil
}

// DeleteComment deletes one of the caller's comments.
func (c *Client) DeleteComment(ctx context.Context, id uint) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/comments/%d", id)}, nil)
}

// LikeComment likes a comment.
func (c *Client) LikeComment(ctx context.Context, id uint) (*models.LikeResult, error) {
	return c.like(ctx, http.MethodPost, idPath("/comments/%d/like", id))
}

// UnlikeComment removes the caller's like from a comment.
func (c *Client) UnlikeComment(ctx context.Context, id uint) (*models.LikeResult, error) {
	return c.like(ctx, http.MethodDelete, idPath("/comments/%d/like", id))
}

func (c *Client) like(ctx context.Context, method, path string) (*models.LikeResult, error) {
	var out likeEnvelope
	if err := c.do(ctx, request{method: method, path: path}, &out); err != nil {
		return nil, err
	}
	return &out.LikeResult, nil
}
