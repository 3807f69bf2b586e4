package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/config"
	"github.com/booklogapp/booklog/internal/database/users"
	"github.com/booklogapp/booklog/internal/entities"
)

func setupService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	issuer := NewTokenIssuer("test-secret", time.Hour)
	cfg := config.Auth{TokenExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	return NewService(users.NewRepository(db), issuer, cfg)
}

func TestRegister(t *testing.T) {
	service := setupService(t)

	result, err := service.Register("alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	assert.NotZero(t, result.User.ID)
	assert.Equal(t, "alice", result.User.Username)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEqual(t, "s3cret-pass", result.User.PasswordHash)

	// The issued token authenticates as the new user
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userID, err := issuer.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, userID)
}

func TestRegister_Validation(t *testing.T) {
	service := setupService(t)

	_, err := service.Register("ab", "alice@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = service.Register("has spaces", "alice@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = service.Register("alice", "not-an-email", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = service.Register("alice", "alice@example.com", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")
}

func TestRegister_Duplicate(t *testing.T) {
	service := setupService(t)

	_, err := service.Register("alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = service.Register("alice", "other@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = service.Register("alice2", "alice@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestLogin(t *testing.T) {
	service := setupService(t)

	registered, err := service.Register("alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	result, err := service.Login("alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	service := setupService(t)

	_, err := service.Register("alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, wrongPassword := service.Login("alice@example.com", "wrong-pass!")
	_, unknownEmail := service.Login("nobody@example.com", "s3cret-pass")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestGetUserByID(t *testing.T) {
	service := setupService(t)

	registered, err := service.Register("alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	user, err := service.GetUserByID(registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = service.GetUserByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
