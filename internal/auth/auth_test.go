package auth

import (
	"context"
	"testing"
	"time"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	PasswordCost = bcrypt.MinCost
}

func TestGenerateAndParseToken(t *testing.T) {
	user := &models.User{ID: 7, Username: "kim", Role: models.RoleAdmin}

	token, err := GenerateToken(testSecret, user, "sess-1", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "kim", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestParseTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	user := &models.User{ID: 1, Username: "kim", Role: models.RoleViewer}

	token, err := GenerateToken(testSecret, user, "s", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("another-secret-another-secret-xx", token)
	assert.Error(t, err)

	expired, err := GenerateToken(testSecret, user, "s", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)
}

func TestMemorySessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	sess := NewSession(&models.User{ID: 3, Username: "lee", Role: models.RoleViewer}, time.Hour)

	require.NoError(t, store.Create(ctx, sess))
	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "lee", got.Username)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	sess := NewSession(&models.User{ID: 3, Username: "lee"}, time.Minute)
	require.NoError(t, store.Create(ctx, sess))

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreSweepsOnCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	stale := NewSession(&models.User{ID: 3, Username: "lee"}, time.Minute)
	require.NoError(t, store.Create(ctx, stale))

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	fresh := NewSession(&models.User{ID: 4, Username: "park"}, time.Hour)
	require.NoError(t, store.Create(ctx, fresh))

	assert.Len(t, store.sessions, 1)
	assert.Contains(t, store.sessions, fresh.ID)
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	user, err := CreateUser(ctx, store, CreateUserRequest{Username: " Admin ", Password: "secret", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.NotEqual(t, "secret", user.PasswordHash)

	got, err := Authenticate(ctx, store, "ADMIN", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = Authenticate(ctx, store, "admin", "wrong")
	assert.ErrorIs(t, err, apperror.New(apperror.CodeUnauthorized, "", 0))

	_, err = CreateUser(ctx, store, CreateUserRequest{Username: "admin", Password: "other", Role: models.RoleViewer})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = CreateUser(ctx, store, CreateUserRequest{Username: "x", Password: "secret", Role: "owner"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSeedUsersIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	require.NoError(t, SeedUsers(ctx, store, "adminpw", "", zap.NewNop()))
	require.NoError(t, SeedUsers(ctx, store, "adminpw", "viewerpw", zap.NewNop()))

	n, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	viewer, err := store.Users().GetByUsername(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, viewer.Role)
}
