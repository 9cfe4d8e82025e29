package auth

import (
	"errors"
	"strconv"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/audit"
	"warehouse-backend/internal/config"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"
	"warehouse-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config, store repository.Store, sessions SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := validation.BindAndValidate(c, &body); err != nil {
			return err
		}

		user, err := Authenticate(c.UserContext(), store, body.Username, body.Password)
		if err != nil {
			return err
		}

		sess := NewSession(user, cfg.TokenTTL)
		if err := sessions.Create(c.UserContext(), sess); err != nil {
			return err
		}

		token, err := GenerateToken(cfg.JWTSecret, user, sess.ID, cfg.TokenTTL)
		if err != nil {
			return apperror.Internal("token could not be created").Wrap(err)
		}

		return c.JSON(fiber.Map{
			"token":     token,
			"expiresAt": sess.ExpiresAt,
			"user":      toUserResponse(user),
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(sessions SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid, ok := c.Locals(CtxSessionIDKey).(string); ok {
			if err := sessions.Delete(c.UserContext(), sid); err != nil {
				return err
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/auth/me
func MeHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return apperror.Unauthorized("")
		}
		user, err := store.Users().GetByID(c.UserContext(), userID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Unauthorized("user no longer exists")
		}
		if err != nil {
			return err
		}
		return c.JSON(toUserResponse(user))
	}
}

// GET /api/users (admin)
func ListUsersHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := store.Users().List(c.UserContext())
		if err != nil {
			return err
		}
		res := make([]UserResponse, 0, len(users))
		for i := range users {
			res = append(res, toUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/users (admin)
func CreateUserHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return apperror.Validation("invalid request body")
		}

		user, err := CreateUser(c.UserContext(), store, body)
		if err != nil {
			return err
		}

		actorID, actorName := Actor(c)
		_ = audit.WriteLog(c.UserContext(), store, audit.LogOptions{
			UserID:      actorID,
			UserName:    actorName,
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionCreate,
			Description: "user created: " + user.Username,
			After:       toUserResponse(user),
		})

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// DELETE /api/users/:id (admin)
func DeleteUserHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return apperror.Validation("invalid user id")
		}

		actorID, actorName := Actor(c)
		if actorID != nil && *actorID == uint(id) {
			return apperror.Validation("you cannot delete your own account")
		}

		user, err := store.Users().GetByID(c.UserContext(), uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("User")
		}
		if err != nil {
			return err
		}
		if _, err := store.Users().Delete(c.UserContext(), user.ID); err != nil {
			return err
		}

		_ = audit.WriteLog(c.UserContext(), store, audit.LogOptions{
			UserID:      actorID,
			UserName:    actorName,
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionDelete,
			Description: "user deleted: " + user.Username,
			Before:      toUserResponse(user),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
