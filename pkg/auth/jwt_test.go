package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newTestPair(t *testing.T) (*JWTGenerator, *JWTValidator) {
	t.Helper()
	generator, err := NewJWTGenerator(JWTGeneratorConfig{
		SecretKey: testSecret,
		Issuer:    "recall-backend",
	})
	require.NoError(t, err)

	validator, err := NewJWTValidator(JWTConfig{
		SecretKey: testSecret,
		Issuer:    "recall-backend",
	})
	require.NoError(t, err)

	return generator, validator
}

func TestJWTRoundTrip(t *testing.T) {
	generator, validator := newTestPair(t)

	token, err := generator.GenerateToken("user-1", "user@example.com", []string{"member"})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, []string{"member"}, claims.Roles)
}

func TestJWTValidationFailures(t *testing.T) {
	_, validator := newTestPair(t)

	t.Run("garbage token", func(t *testing.T) {
		_, err := validator.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTGenerator(JWTGeneratorConfig{
			SecretKey: "a-different-secret",
			Issuer:    "recall-backend",
		})
		require.NoError(t, err)

		token, err := other.GenerateToken("user-1", "", nil)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived, err := NewJWTGenerator(JWTGeneratorConfig{
			SecretKey:  testSecret,
			Issuer:     "recall-backend",
			ExpiryTime: time.Nanosecond,
		})
		require.NoError(t, err)

		token, err := shortLived.GenerateToken("user-1", "", nil)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTGenerator(JWTGeneratorConfig{
			SecretKey: testSecret,
			Issuer:    "someone-else",
		})
		require.NoError(t, err)

		token, err := other.GenerateToken("user-1", "", nil)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("generator requires a secret", func(t *testing.T) {
		_, err := NewJWTGenerator(JWTGeneratorConfig{})
		assert.Error(t, err)
	})

	t.Run("validator requires a secret", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{})
		assert.Error(t, err)
	})
}
