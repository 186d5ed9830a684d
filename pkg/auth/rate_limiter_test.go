package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the burst size", func(t *testing.T) {
		limiter := NewTokenBucketLimiter(3, time.Hour)

		for i := 0; i < 3; i++ {
			allowed, err := limiter.Allow(ctx, "key")
			require.NoError(t, err)
			assert.True(t, allowed, "request %d", i)
		}

		allowed, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		limiter := NewTokenBucketLimiter(1, time.Hour)

		allowed, _ := limiter.Allow(ctx, "a")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow(ctx, "a")
		assert.False(t, allowed)

		allowed, _ = limiter.Allow(ctx, "b")
		assert.True(t, allowed)
	})

	t.Run("refills over time", func(t *testing.T) {
		limiter := NewTokenBucketLimiter(1, 10*time.Millisecond)

		allowed, _ := limiter.Allow(ctx, "key")
		require.True(t, allowed)
		allowed, _ = limiter.Allow(ctx, "key")
		require.False(t, allowed)

		time.Sleep(25 * time.Millisecond)
		allowed, _ = limiter.Allow(ctx, "key")
		assert.True(t, allowed)
	})

	t.Run("reset restores the bucket", func(t *testing.T) {
		limiter := NewTokenBucketLimiter(1, time.Hour)

		allowed, _ := limiter.Allow(ctx, "key")
		require.True(t, allowed)
		require.NoError(t, limiter.Reset(ctx, "key"))

		allowed, _ = limiter.Allow(ctx, "key")
		assert.True(t, allowed)
	})
}

func TestUserRateLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewUserRateLimiter(2)

	allowed, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _ = limiter.Allow(ctx, "user-1")
	assert.True(t, allowed)

	allowed, _ = limiter.Allow(ctx, "user-1")
	assert.False(t, allowed)

	// Other users keep their own budget.
	allowed, _ = limiter.Allow(ctx, "user-2")
	assert.True(t, allowed)
}
