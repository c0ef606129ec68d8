package user

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mybai/storefront-backend/internal/config"
	"github.com/mybai/storefront-backend/internal/domain/cart"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&User{}, &cart.Cart{}))

	cfg := &config.Config{}
	cfg.App.Name = "mybai"
	cfg.JWT.Secret = "test-secret-key-that-is-long-enough!!"
	cfg.JWT.AccessTokenExpiry = time.Hour
	cfg.Security.BcryptCost = 4
	return NewService(db, cfg)
}

func registerRequest(email string) *RegisterRequest {
	return &RegisterRequest{
		Email:           email,
		Password:        "s3guros3guro",
		ConfirmPassword: "s3guros3guro",
		FirstName:       "Ana",
	}
}

func TestRegisterCreatesUserAndCart(t *testing.T) {
	svc := newTestService(t)

	response, err := svc.Register(registerRequest("Ana@Example.com"))
	require.NoError(t, err)

	assert.NotEmpty(t, response.AccessToken)
	assert.Equal(t, "ana@example.com", response.User.Email)
	assert.Empty(t, response.User.Password)

	var userCart cart.Cart
	require.NoError(t, svc.db.Where("user_id = ?", response.User.ID).First(&userCart).Error)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(registerRequest("ana@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(registerRequest("ana@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc := newTestService(t)

	req := registerRequest("ana@example.com")
	req.ConfirmPassword = "otracosa12345"

	_, err := svc.Register(req)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(registerRequest("ana@example.com"))
	require.NoError(t, err)

	response, err := svc.Login(&LoginRequest{Email: "ana@example.com", Password: "s3guros3guro"})
	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotNil(t, response.User.LastLoginAt)

	_, err = svc.Login(&LoginRequest{Email: "ana@example.com", Password: "incorrecta123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&LoginRequest{Email: "nadie@example.com", Password: "s3guros3guro"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
