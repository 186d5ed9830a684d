package scheduling

import (
	"math/rand"
	"sync"
	"time"

	"recall-backend/domain/core/valueobjects"
)

// jitterSpread is the half-width of the uniform perturbation applied to
// intervals, so due dates spread over +-10% instead of clustering.
const jitterSpread = 0.1

// minIntervalDays is the floor for any computed interval. A failed review
// still lands tomorrow, never "right now".
const minIntervalDays = 1.0

// seedStability maps a first-ever rating (index 1-5) to a starting
// stability in days. Failures seed near-term, strong recall seeds a week out.
var seedStability = [6]float64{0, 1, 1, 2, 4, 7}

// growthMultiplier returns the cycle-to-cycle interval multiplier for a
// passing rating: 3 keeps pace, 4-5 accelerate.
func growthMultiplier(rating valueobjects.Rating) float64 {
	return 1 + float64(rating.Int()-3)*0.5
}

// ScheduleResult is the outcome of scheduling one completed review
type ScheduleResult struct {
	NextCycle     int       `json:"next_cycle"`
	NextStability float64   `json:"next_stability"` // days
	NextDue       time.Time `json:"next_due"`
}

// Scheduler computes next review dates from ratings and prior interval
// state. It holds only the jitter source; all scheduling state lives in
// the caller's inputs, so a single Scheduler serves every item.
type Scheduler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScheduler creates a scheduler with a non-deterministic jitter source
func NewScheduler() *Scheduler {
	return NewSeededScheduler(time.Now().UnixNano())
}

// NewSeededScheduler creates a scheduler with a fixed jitter seed.
// Tests use this for reproducible due dates.
func NewSeededScheduler(seed int64) *Scheduler {
	return &Scheduler{rng: rand.New(rand.NewSource(seed))}
}

// Schedule computes the next cycle, stability and due date for a review.
//
// A rating of 1 resets the interval, 2 halves it, 3 keeps pace and 4-5
// accelerate growth; growth is scaled by the settings' gFactor and capped
// at sMax days. The first-ever review (cycle 0 or no prior stability)
// seeds stability from the rating alone.
func (s *Scheduler) Schedule(
	rating int,
	currentCycle int,
	currentStability float64,
	settings GraphSettings,
	now time.Time,
) (ScheduleResult, error) {
	r, err := valueobjects.NewRating(rating)
	if err != nil {
		return ScheduleResult{}, err
	}

	if err := settings.Validate(); err != nil {
		return ScheduleResult{}, err
	}

	var interval float64
	switch {
	case currentCycle <= 0 || currentStability <= 0:
		interval = seedStability[r.Int()]
	case r == valueobjects.RatingForgot:
		interval = minIntervalDays
	case r == valueobjects.RatingHard:
		interval = currentStability * 0.5
	default:
		interval = currentStability * growthMultiplier(r) * settings.GFactor
	}

	if interval < minIntervalDays {
		interval = minIntervalDays
	}
	if interval > settings.SMax {
		interval = settings.SMax
	}

	// Stability records the un-jittered interval; jitter only perturbs the
	// concrete due date so the schedule itself stays reproducible.
	stability := interval

	if settings.JitterEnabled {
		interval *= s.jitterFactor()
		if interval > settings.SMax {
			interval = settings.SMax
		}
		if interval < minIntervalDays {
			interval = minIntervalDays
		}
	}

	return ScheduleResult{
		NextCycle:     currentCycle + 1,
		NextStability: stability,
		NextDue:       now.Add(time.Duration(interval * 24 * float64(time.Hour))),
	}, nil
}

func (s *Scheduler) jitterFactor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 1 - jitterSpread + 2*jitterSpread*s.rng.Float64()
}
