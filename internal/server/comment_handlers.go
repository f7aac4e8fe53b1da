package server

import (
	"aperture/internal/models"
	"aperture/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentPageResponse struct {
	Success bool `json:"success"`
	*models.CommentPage
}

// GetComments handles GET /api/posts/:postId/comments
// @Summary List comments
// @Description Paginated comments of a post, newest first
// @Tags comments
// @Produce json
// @Param postId path int true "Post ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} commentPageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	page := parsePage(c, service.DefaultCommentLimit)
	result, err := s.commentService.ListComments(c.UserContext(), postID, page, s.optionalUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(commentPageResponse{Success: true, CommentPage: result})
}

// CreateComment handles POST /api/posts/:postId/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} object{success=bool,comment=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), postID, currentUserID(c), req.Text)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "comment": comment})
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), id, currentUserID(c)); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Comment deleted successfully"})
}

// LikeComment handles POST /api/comments/:id/like
// @Summary Like comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} object{success=bool,liked=bool,likesCount=int}
// @Router /comments/{id}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.commentService.LikeComment(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return respondLike(c, result)
}

// UnlikeComment handles DELETE /api/comments/:id/like
// @Summary Unlike comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} object{success=bool,liked=bool,likesCount=int}
// @Router /comments/{id}/like [delete]
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.commentService.UnlikeComment(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return respondLike(c, result)
}
