package auth

import (
	"errors"
	"strings"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/config"
	"warehouse-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserRoleKey  = "user_role"
	CtxUsernameKey  = "username"
	CtxSessionIDKey = "session_id"
)

func JWTMiddleware(cfg *config.Config, sessions SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperror.Unauthorized("Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperror.Unauthorized("Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return apperror.Unauthorized("invalid or expired token")
		}

		sess, err := sessions.Get(c.UserContext(), claims.SessionID)
		if errors.Is(err, ErrSessionNotFound) {
			return apperror.Unauthorized("session expired or logged out")
		}
		if err != nil {
			return err
		}

		c.Locals(CtxUserIDKey, sess.UserID)
		c.Locals(CtxUserRoleKey, sess.Role)
		c.Locals(CtxUsernameKey, sess.Username)
		c.Locals(CtxSessionIDKey, sess.ID)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return apperror.Forbidden("role information missing")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return apperror.Forbidden("you are not allowed to perform this action")
	}
}

// Actor returns the authenticated user id and name set by JWTMiddleware.
func Actor(c *fiber.Ctx) (*uint, string) {
	name, _ := c.Locals(CtxUsernameKey).(string)
	if id, ok := c.Locals(CtxUserIDKey).(uint); ok {
		return &id, name
	}
	return nil, name
}
