package valueobjects

import "fmt"

// DefaultStrengthValue is the strength assigned to a freshly created node.
// It is deliberately the midpoint so the classifier needs the studied flag
// to distinguish "untouched" from "genuinely half-mastered".
const DefaultStrengthValue = 0.5

// Strength is a value object for node/item mastery on the canonical [0,1] scale.
// All internal logic works on this scale; the 1-5 mastery scale and legacy
// 0-100 percentages are converted at the boundary.
type Strength struct {
	value float64
}

// NewStrength canonicalizes a raw strength value.
// Values above 1 are treated as legacy 0-100 percentages and divided by 100;
// the result is clamped to [0,1]. Total and idempotent, never fails.
func NewStrength(raw float64) Strength {
	if raw > 1 {
		raw = raw / 100
	}
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	return Strength{value: raw}
}

// DefaultStrength returns the unset/default strength
func DefaultStrength() Strength {
	return Strength{value: DefaultStrengthValue}
}

// StrengthFromMastery converts a 1-5 mastery value to canonical strength
func StrengthFromMastery(mastery float64) Strength {
	return NewStrength((mastery - 1) / 4)
}

// Value returns the canonical [0,1] strength
func (s Strength) Value() float64 {
	return s.value
}

// Mastery returns the strength on the 1-5 display scale
func (s Strength) Mastery() float64 {
	return 1 + 4*s.value
}

// Percent returns the strength as a 0-100 percentage
func (s Strength) Percent() float64 {
	return s.value * 100
}

// IsDefault reports whether the strength equals the unset default
func (s Strength) IsDefault() bool {
	return s.value == DefaultStrengthValue
}

// Add applies a delta and clamps the result to [0,1].
// Clamping here is direct, not via NewStrength: a sum above 1 is an
// overshoot to cap, not a legacy percentage.
func (s Strength) Add(delta float64) Strength {
	v := s.value + delta
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return Strength{value: v}
}

// MasteryTier is the discrete classification of a strength value
type MasteryTier string

const (
	TierNotStudied MasteryTier = "not_studied"
	TierNeedsWork  MasteryTier = "needs_work"
	TierInProgress MasteryTier = "in_progress"
	TierGood       MasteryTier = "good"
	TierMastered   MasteryTier = "mastered"
)

// Classification carries the display semantics for a classified strength
type Classification struct {
	Tier          MasteryTier `json:"tier"`
	ColorSemantic string      `json:"color_semantic"`
	ShowNumeric   bool        `json:"show_numeric"`
	Description   string      `json:"description"`
}

// ClassifyStrength maps a strength and studied flag to a mastery tier.
// Rules are evaluated in order, first match wins. A node at the 0.5 default
// that has never been studied must classify as NotStudied, never as
// partially mastered.
func ClassifyStrength(s Strength, hasBeenStudied bool) Classification {
	switch {
	case !hasBeenStudied && s.IsDefault():
		return Classification{
			Tier:          TierNotStudied,
			ColorSemantic: "neutral",
			ShowNumeric:   false,
			Description:   "Not studied yet",
		}
	case hasBeenStudied && s.value < 0.3:
		return Classification{
			Tier:          TierNeedsWork,
			ColorSemantic: "danger",
			ShowNumeric:   true,
			Description:   "Needs work",
		}
	case hasBeenStudied && s.value < 0.6:
		return Classification{
			Tier:          TierInProgress,
			ColorSemantic: "warning",
			ShowNumeric:   true,
			Description:   "In progress",
		}
	case hasBeenStudied && s.value < 0.8:
		return Classification{
			Tier:          TierGood,
			ColorSemantic: "info",
			ShowNumeric:   true,
			Description:   "Good",
		}
	case hasBeenStudied:
		return Classification{
			Tier:          TierMastered,
			ColorSemantic: "success",
			ShowNumeric:   true,
			Description:   "Mastered",
		}
	default:
		// Unstudied node with a non-default strength: fall back to the
		// raw percentage without claiming a tier.
		return Classification{
			Tier:          tierForValue(s.value),
			ColorSemantic: "neutral",
			ShowNumeric:   true,
			Description:   fmt.Sprintf("%.0f%%", s.Percent()),
		}
	}
}

func tierForValue(v float64) MasteryTier {
	switch {
	case v < 0.3:
		return TierNeedsWork
	case v < 0.6:
		return TierInProgress
	case v < 0.8:
		return TierGood
	default:
		return TierMastered
	}
}
