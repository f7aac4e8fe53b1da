package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"aperture/internal/cache"
	"aperture/internal/middleware"
	"aperture/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired verifies the bearer token and stores the caller in locals.
// The websocket endpoint also accepts the token as a "token" query parameter.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws")

		tokenString, err := middleware.BearerToken(c, isWSPath)
		if err != nil {
			msg := "Authorization required"
			if errors.Is(err, middleware.ErrInvalidToken) {
				msg = "Invalid or expired token"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		claims, err := middleware.ParseAccessToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		revoked, err := cache.IsRevoked(c.UserContext(), claims.JTI)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "revocation check failed", "error", err)
		}
		if revoked {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("jti", claims.JTI)
		c.Locals("tokenExpiresAt", claims.ExpiresAt)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, claims.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID identifies the caller of a public route when a valid token is presented.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	tokenString, err := middleware.BearerToken(c, false)
	if err != nil {
		return 0
	}
	claims, err := middleware.ParseAccessToken(s.config.JWTSecret, tokenString)
	if err != nil {
		return 0
	}
	if revoked, _ := cache.IsRevoked(c.UserContext(), claims.JTI); revoked {
		return 0
	}
	return claims.UserID
}

func (s *Server) tokenTTL() time.Duration {
	return time.Duration(s.config.JWTTTLHours) * time.Hour
}
