package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"
	"warehouse-backend/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost for new hashes. Tests lower it.
var PasswordCost = bcrypt.DefaultCost

type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=100"`
	Password string          `json:"password" validate:"required,min=4,max=72"`
	Role     models.UserRole `json:"role" validate:"required,oneof=admin viewer"`
}

func CreateUser(ctx context.Context, store repository.Store, req CreateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("username already exists")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Unknown user and wrong password look the same.
func Authenticate(ctx context.Context, store repository.Store, username, password string) (*models.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))

	user, err := store.Users().GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unauthorized("invalid username or password")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}
	return user, nil
}

// SeedUsers creates the default admin and viewer accounts when their passwords
// are configured and the accounts do not exist yet.
func SeedUsers(ctx context.Context, store repository.Store, adminPassword, viewerPassword string, log *zap.Logger) error {
	seeds := []CreateUserRequest{
		{Username: "admin", Password: adminPassword, Role: models.RoleAdmin},
		{Username: "viewer", Password: viewerPassword, Role: models.RoleViewer},
	}
	for _, s := range seeds {
		if s.Password == "" {
			continue
		}
		if _, err := store.Users().GetByUsername(ctx, s.Username); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := CreateUser(ctx, store, s); err != nil {
			return fmt.Errorf("seed user %s: %w", s.Username, err)
		}
		log.Info("seeded user", zap.String("username", s.Username), zap.String("role", string(s.Role)))
	}
	return nil
}
