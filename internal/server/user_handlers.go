package server

import (
	"aperture/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchUsers handles GET /api/users/search?q=
// @Summary Search accounts
// @Tags users
// @Produce json
// @Param q query string true "Query"
// @Success 200 {object} object{success=bool,users=[]models.UserSummary}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.userService.Search(c.UserContext(), c.Query("q"), service.DefaultSearchLimit)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "users": users})
}

// GetUserProfile handles GET /api/users/:username
// @Summary Get profile
// @Description Account with resolved followers and following. isFollowing is set for a signed-in viewer.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} object{success=bool,user=models.Profile}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetProfile(c.UserContext(), c.Params("username"), s.optionalUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": profile})
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary List followers
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,followers=[]models.UserSummary}
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	followers, err := s.userService.Followers(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "followers": followers})
}

// GetFollowing handles GET /api/users/:id/following
// @Summary List followed accounts
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,following=[]models.UserSummary}
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	following, err := s.userService.Following(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "following": following})
}

// UpdateProfile handles PUT /api/users/profile
// @Summary Update own profile
// @Description Only the supplied fields are changed
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{fullName=string,bio=string,email=string,profilePicture=string} true "Fields to change"
// @Success 200 {object} object{success=bool,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		FullName       *string `json:"fullName"`
		Bio            *string `json:"bio"`
		Email          *string `json:"email"`
		ProfilePicture *string `json:"profilePicture"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         currentUserID(c),
		FullName:       req.FullName,
		Bio:            req.Bio,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow an account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,message=string,followingCount=int,followerCount=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	counts, err := s.followService.Follow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "User followed successfully",
		"followingCount": counts.FollowingCount,
		"followerCount":  counts.FollowerCount,
	})
}

// UnfollowUser handles DELETE /api/users/:id/follow
// @Summary Unfollow an account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,message=string,followingCount=int,followerCount=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{id}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	counts, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "User unfollowed successfully",
		"followingCount": counts.FollowingCount,
		"followerCount":  counts.FollowerCount,
	})
}
