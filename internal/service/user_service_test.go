package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/repository/mysql"
	"github.com/example/goshop/internal/service"
)

func TestUserRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	jwtCfg := &config.JWTConfig{Secret: "test-secret"}
	svc := service.NewUserService(mysql.NewUserRepository(db), jwtCfg)
	ctx := context.Background()

	t.Run("register validates input", func(t *testing.T) {
		_, err := svc.Register(ctx, "", "a@b.co", "secret1")
		assert.ErrorIs(t, err, service.ErrValidation)

		_, err = svc.Register(ctx, "Alice", "not-an-email", "secret1")
		assert.ErrorIs(t, err, service.ErrValidation)

		_, err = svc.Register(ctx, "Alice", "a@b.co", "short")
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	u, err := svc.Register(ctx, "Alice", "Alice@Example.com", "secret1")
	assert.NoError(t, err)
	// 邮箱统一小写存储
	assert.Equal(t, "alice@example.com", u.Email)

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "Alice Again", "alice@example.com", "secret1")
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("login returns a verifiable token", func(t *testing.T) {
		token, err := svc.Login(ctx, "alice@example.com", "secret1")
		assert.NoError(t, err)

		claims, err := auth.ParseToken(jwtCfg, token)
		assert.NoError(t, err)
		assert.Equal(t, u.ID, claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
	})

	t.Run("wrong password and unknown email fail the same way", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, service.ErrUnauthorized)

		_, err = svc.Login(ctx, "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("update resets password when provided", func(t *testing.T) {
		_, err := svc.Update(ctx, u.ID, "", "", "newpass1")
		assert.NoError(t, err)

		_, err = svc.Login(ctx, "alice@example.com", "secret1")
		assert.ErrorIs(t, err, service.ErrUnauthorized)

		_, err = svc.Login(ctx, "alice@example.com", "newpass1")
		assert.NoError(t, err)
	})

	t.Run("delete then fetch is a not found", func(t *testing.T) {
		assert.NoError(t, svc.Delete(ctx, u.ID))
		_, err := svc.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}
