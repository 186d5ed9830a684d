package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRating(t *testing.T) {
	t.Run("accepts 1 through 5", func(t *testing.T) {
		for v := 1; v <= 5; v++ {
			r, err := NewRating(v)
			require.NoError(t, err)
			assert.Equal(t, v, r.Int())
		}
	})

	t.Run("rejects out of range", func(t *testing.T) {
		for _, v := range []int{0, 6, -1, 100} {
			_, err := NewRating(v)
			assert.Error(t, err, "rating %d should be rejected", v)
		}
	})
}

func TestRatingIsFailure(t *testing.T) {
	assert.True(t, RatingForgot.IsFailure())
	assert.True(t, RatingHard.IsFailure())
	assert.False(t, RatingOK.IsFailure())
	assert.False(t, RatingGood.IsFailure())
	assert.False(t, RatingPerfect.IsFailure())
}

func TestRatingStrengthDelta(t *testing.T) {
	assert.InDelta(t, -0.2, RatingForgot.StrengthDelta(), 1e-9)
	assert.InDelta(t, -0.1, RatingHard.StrengthDelta(), 1e-9)
	assert.InDelta(t, 0.0, RatingOK.StrengthDelta(), 1e-9)
	assert.InDelta(t, 0.1, RatingGood.StrengthDelta(), 1e-9)
	assert.InDelta(t, 0.2, RatingPerfect.StrengthDelta(), 1e-9)
}
