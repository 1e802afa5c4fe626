package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/endurance-planner/internal/repository/memory"
	"alcyxob/endurance-planner/internal/service"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth := service.NewAuthService(memory.NewUserRepository(), "test-secret", time.Hour)

	user, err := auth.Register(ctx, "Ana", " Ana@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = auth.Register(ctx, "Ana 2", "ana@example.com", "another password")
	assert.ErrorIs(t, err, service.ErrUserAlreadyExists)

	_, _, err = auth.Login(ctx, "ana@example.com", "wrong password")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	_, _, err = auth.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)

	token, loggedIn, err := auth.Login(ctx, "ANA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims := &service.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims.UserID)

	me, err := auth.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
	assert.Empty(t, me.PasswordHash)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	auth := service.NewAuthService(memory.NewUserRepository(), "test-secret", time.Hour)
	for name, tc := range map[string][3]string{
		"no name":        {"", "a@b.co", "long enough"},
		"bad email":      {"Ana", "not-an-email", "long enough"},
		"short password": {"Ana", "a@b.co", "short"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Register(context.Background(), tc[0], tc[1], tc[2])
			assert.ErrorIs(t, err, service.ErrInvalidRegistration)
		})
	}
}
