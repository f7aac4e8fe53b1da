package server

import (
	"io"

	"aperture/internal/models"
	"aperture/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postPageResponse struct {
	Success bool `json:"success"`
	*models.PostPage
}

// GetFeed handles GET /api/posts/feed
// @Summary Home feed
// @Description Own posts plus posts of followed accounts, newest first
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} postPageResponse
// @Router /posts/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePage(c, service.DefaultFeedLimit)
	result, err := s.feedService.GetFeed(c.UserContext(), currentUserID(c), page)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(postPageResponse{Success: true, PostPage: result})
}

// GetUserPosts handles GET /api/posts/user/:id
// @Summary Posts by account
// @Tags posts
// @Produce json
// @Param id path int true "User ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(12)
// @Success 200 {object} postPageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/user/{id} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePage(c, service.DefaultUserPostsLimit)
	result, err := s.postService.GetUserPosts(c.UserContext(), id, page, s.optionalUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(postPageResponse{Success: true, PostPage: result})
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Description Post with author and all comments, oldest first
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,post=models.Post}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "post": post})
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image"
// @Param caption formData string false "Caption"
// @Param location formData string false "Location"
// @Param tags formData string false "Comma separated tags"
// @Success 201 {object} object{success=bool,post=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "Image is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "Unable to read image")
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return badRequest(c, "Unable to read image")
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:      currentUserID(c),
		Image:       content,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Caption:     c.FormValue("caption"),
		Location:    c.FormValue("location"),
		Tags:        c.FormValue("tags"),
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "post": post})
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), id, currentUserID(c)); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Post deleted successfully"})
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,liked=bool,likesCount=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.postService.LikePost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return respondLike(c, result)
}

// UnlikePost handles DELETE /api/posts/:id/like
// @Summary Unlike post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,liked=bool,likesCount=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.postService.UnlikePost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return respondLike(c, result)
}

func respondLike(c *fiber.Ctx, result *models.LikeResult) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"liked":      result.Liked,
		"likesCount": result.LikesCount,
	})
}
