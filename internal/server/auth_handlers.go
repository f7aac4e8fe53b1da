package server

import (
	"time"

	"aperture/internal/cache"
	"aperture/internal/middleware"
	"aperture/internal/models"
	"aperture/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string,fullName=string} true "Registration"
// @Success 201 {object} authResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return mapServiceError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusOK, user)
}

// Verify handles GET /api/auth/verify
// @Summary Verify token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/verify [get]
func (s *Server) Verify(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("User not found"))
		}
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the presented access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	expiresAt, _ := c.Locals("tokenExpiresAt").(time.Time)

	if err := cache.RevokeToken(c.UserContext(), jti, expiresAt); err != nil {
		return mapServiceError(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"success": true, "message": "Logged out successfully"})
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, user *models.User) error {
	token, _, err := middleware.IssueAccessToken(s.config.JWTSecret, user.ID, user.Username, s.tokenTTL())
	if err != nil {
		return mapServiceError(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(authResponse{Success: true, Token: token, User: user})
}
