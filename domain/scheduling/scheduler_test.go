package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noJitterSettings(preset Preset) GraphSettings {
	settings, _ := NewGraphSettings(preset)
	settings.JitterEnabled = false
	return settings
}

func TestScheduleRejectsInvalidRating(t *testing.T) {
	s := NewSeededScheduler(1)
	now := time.Now()

	for _, rating := range []int{0, 6, -3} {
		_, err := s.Schedule(rating, 1, 10, noJitterSettings(PresetBalanced), now)
		assert.Error(t, err, "rating %d should be rejected", rating)
	}
}

func TestScheduleRejectsInvalidSettings(t *testing.T) {
	s := NewSeededScheduler(1)
	settings := noJitterSettings(PresetBalanced)
	settings.SMax = 0

	_, err := s.Schedule(3, 1, 10, settings, time.Now())
	assert.Error(t, err)
}

func TestScheduleFirstReviewSeedsStability(t *testing.T) {
	s := NewSeededScheduler(1)
	now := time.Now()
	settings := noJitterSettings(PresetBalanced)

	tests := []struct {
		rating int
		want   float64
	}{
		{1, 1}, {2, 1}, {3, 2}, {4, 4}, {5, 7},
	}

	for _, tt := range tests {
		result, err := s.Schedule(tt.rating, 0, 0, settings, now)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, result.NextStability, 1e-9, "rating %d", tt.rating)
		assert.Equal(t, 1, result.NextCycle)
	}
}

func TestScheduleRatingBehaviors(t *testing.T) {
	s := NewSeededScheduler(1)
	now := time.Now()
	settings := noJitterSettings(PresetBalanced)
	const stability = 20.0

	t.Run("forgot resets to one day", func(t *testing.T) {
		result, err := s.Schedule(1, 3, stability, settings, now)
		require.NoError(t, err)
		assert.InDelta(t, 1, result.NextStability, 1e-9)
		assert.WithinDuration(t, now.Add(24*time.Hour), result.NextDue, time.Second)
	})

	t.Run("hard halves the interval", func(t *testing.T) {
		result, err := s.Schedule(2, 3, stability, settings, now)
		require.NoError(t, err)
		assert.InDelta(t, 10, result.NextStability, 1e-9)
	})

	t.Run("ok keeps pace", func(t *testing.T) {
		result, err := s.Schedule(3, 3, stability, settings, now)
		require.NoError(t, err)
		assert.InDelta(t, 20, result.NextStability, 1e-9)
	})

	t.Run("good grows by half", func(t *testing.T) {
		result, err := s.Schedule(4, 3, stability, settings, now)
		require.NoError(t, err)
		assert.InDelta(t, 30, result.NextStability, 1e-9)
	})

	t.Run("perfect doubles", func(t *testing.T) {
		result, err := s.Schedule(5, 3, stability, settings, now)
		require.NoError(t, err)
		assert.InDelta(t, 40, result.NextStability, 1e-9)
	})

	t.Run("cycle always advances", func(t *testing.T) {
		result, err := s.Schedule(1, 7, stability, settings, now)
		require.NoError(t, err)
		assert.Equal(t, 8, result.NextCycle)
	})
}

func TestScheduleCapsAtSMax(t *testing.T) {
	s := NewSeededScheduler(1)
	now := time.Now()
	settings := noJitterSettings(PresetBalanced)

	result, err := s.Schedule(5, 10, 150, settings, now)
	require.NoError(t, err)
	assert.InDelta(t, settings.SMax, result.NextStability, 1e-9)
	assert.WithinDuration(t, now.Add(180*24*time.Hour), result.NextDue, time.Second)
}

func TestScheduleNeverBelowOneDay(t *testing.T) {
	s := NewSeededScheduler(1)
	now := time.Now()
	settings := noJitterSettings(PresetBalanced)

	// Halving a tiny interval would land under a day without the floor.
	result, err := s.Schedule(2, 2, 0.5, settings, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.NextStability, 1.0)
}

func TestSchedulePresetOrdering(t *testing.T) {
	now := time.Now()
	const stability = 30.0

	intervals := make(map[Preset]float64)
	for _, preset := range []Preset{PresetGentle, PresetBalanced, PresetIntensive} {
		s := NewSeededScheduler(1)
		result, err := s.Schedule(4, 3, stability, noJitterSettings(preset), now)
		require.NoError(t, err)
		intervals[preset] = result.NextStability
	}

	assert.Greater(t, intervals[PresetGentle], intervals[PresetBalanced])
	assert.Greater(t, intervals[PresetBalanced], intervals[PresetIntensive])
}

func TestScheduleJitter(t *testing.T) {
	now := time.Now()
	settings, _ := NewGraphSettings(PresetBalanced)
	require.True(t, settings.JitterEnabled)

	t.Run("same seed reproduces due dates", func(t *testing.T) {
		a, err := NewSeededScheduler(42).Schedule(4, 3, 20, settings, now)
		require.NoError(t, err)
		b, err := NewSeededScheduler(42).Schedule(4, 3, 20, settings, now)
		require.NoError(t, err)
		assert.Equal(t, a.NextDue, b.NextDue)
	})

	t.Run("stability is not jittered", func(t *testing.T) {
		result, err := NewSeededScheduler(42).Schedule(4, 3, 20, settings, now)
		require.NoError(t, err)
		assert.InDelta(t, 30, result.NextStability, 1e-9)
	})

	t.Run("due date stays within ten percent", func(t *testing.T) {
		s := NewSeededScheduler(7)
		for i := 0; i < 100; i++ {
			result, err := s.Schedule(4, 3, 20, settings, now)
			require.NoError(t, err)

			days := result.NextDue.Sub(now).Hours() / 24
			assert.GreaterOrEqual(t, days, 30*0.9-1e-6)
			assert.LessOrEqual(t, days, 30*1.1+1e-6)
		}
	})
}

func TestGraphSettingsPresets(t *testing.T) {
	tests := []struct {
		preset  Preset
		sMax    float64
		gFactor float64
	}{
		{PresetGentle, 240, 1.1},
		{PresetBalanced, 180, 1.0},
		{PresetIntensive, 120, 0.9},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			settings, err := NewGraphSettings(tt.preset)
			require.NoError(t, err)
			assert.Equal(t, tt.sMax, settings.SMax)
			assert.Equal(t, tt.gFactor, settings.GFactor)
		})
	}

	t.Run("unknown preset fails", func(t *testing.T) {
		_, err := NewGraphSettings(Preset("extreme"))
		assert.Error(t, err)
	})

	t.Run("overrides survive independently", func(t *testing.T) {
		settings, err := NewGraphSettings(PresetBalanced)
		require.NoError(t, err)
		settings.SMax = 365
		assert.NoError(t, settings.Validate())
		assert.Equal(t, 1.0, settings.GFactor)
	})
}
