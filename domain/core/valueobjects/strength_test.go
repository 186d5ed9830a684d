package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStrength(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"canonical value passes through", 0.42, 0.42},
		{"zero stays zero", 0, 0},
		{"one stays one", 1, 1},
		{"legacy percentage is rescaled", 85, 0.85},
		{"legacy 100 becomes full strength", 100, 1},
		{"negative clamps to zero", -0.5, 0},
		{"legacy above 100 clamps to one", 250, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NewStrength(tt.raw).Value(), 1e-9)
		})
	}
}

func TestNewStrengthIdempotent(t *testing.T) {
	// Canonicalizing an already canonical value must not change it again.
	once := NewStrength(85)
	twice := NewStrength(once.Value())
	assert.Equal(t, once.Value(), twice.Value())
}

func TestStrengthAdd(t *testing.T) {
	t.Run("clamps above one", func(t *testing.T) {
		s := NewStrength(0.95).Add(0.2)
		assert.Equal(t, 1.0, s.Value())
	})

	t.Run("clamps below zero", func(t *testing.T) {
		s := NewStrength(0.05).Add(-0.2)
		assert.Equal(t, 0.0, s.Value())
	})

	t.Run("sum above one is a cap, not a legacy percentage", func(t *testing.T) {
		// 0.9 + 0.3 = 1.2 must clamp to 1, never divide by 100.
		s := NewStrength(0.9).Add(0.3)
		assert.Equal(t, 1.0, s.Value())
	})
}

func TestStrengthScales(t *testing.T) {
	s := NewStrength(0.5)
	assert.InDelta(t, 3.0, s.Mastery(), 1e-9)
	assert.InDelta(t, 50.0, s.Percent(), 1e-9)

	assert.InDelta(t, 0.0, StrengthFromMastery(1).Value(), 1e-9)
	assert.InDelta(t, 1.0, StrengthFromMastery(5).Value(), 1e-9)
	assert.InDelta(t, 0.5, StrengthFromMastery(3).Value(), 1e-9)
}

func TestClassifyStrength(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		studied bool
		want    MasteryTier
	}{
		{"default unstudied is not studied", DefaultStrengthValue, false, TierNotStudied},
		{"default studied is in progress", DefaultStrengthValue, true, TierInProgress},
		{"low strength needs work", 0.1, true, TierNeedsWork},
		{"boundary 0.3 is in progress", 0.3, true, TierInProgress},
		{"boundary 0.6 is good", 0.6, true, TierGood},
		{"boundary 0.8 is mastered", 0.8, true, TierMastered},
		{"full strength is mastered", 1.0, true, TierMastered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ClassifyStrength(NewStrength(tt.value), tt.studied)
			assert.Equal(t, tt.want, c.Tier)
		})
	}

	t.Run("not studied hides the numeric value", func(t *testing.T) {
		c := ClassifyStrength(DefaultStrength(), false)
		assert.False(t, c.ShowNumeric)
	})

	t.Run("unstudied non-default falls back to percentage", func(t *testing.T) {
		c := ClassifyStrength(NewStrength(0.7), false)
		assert.True(t, c.ShowNumeric)
		assert.Equal(t, "70%", c.Description)
	})
}
