package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/com2pa/backend-ecommerce/internal/config"
)

func jwtConfig(secret string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "backend-ecommerce"},
		JWT: config.JWTConfig{
			Secret:            secret,
			AccessTokenExpiry: time.Hour,
		},
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	manager := NewJWTManager(jwtConfig("test-secret"))

	token, err := manager.GenerateAccessToken(42, "maria@com2pa.com", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "maria@com2pa.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "user:42", claims.Subject)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager(jwtConfig("secret-a")).GenerateAccessToken(1, "a@com2pa.com", false)
	require.NoError(t, err)

	_, err = NewJWTManager(jwtConfig("secret-b")).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	cfg := jwtConfig("test-secret")
	cfg.JWT.AccessTokenExpiry = -time.Minute
	manager := NewJWTManager(cfg)

	token, err := manager.GenerateAccessToken(1, "a@com2pa.com", false)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc123", ExtractTokenFromHeader("Bearer abc123"))
	assert.Equal(t, "abc123", ExtractTokenFromHeader("bearer abc123"))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc123"))
	assert.Empty(t, ExtractTokenFromHeader("abc123"))
	assert.Empty(t, ExtractTokenFromHeader(""))
}
