package scheduling

import (
	pkgerrors "recall-backend/pkg/errors"
)

// Preset is a named bundle of default scheduler parameters
type Preset string

const (
	PresetGentle    Preset = "gentle"
	PresetBalanced  Preset = "balanced"
	PresetIntensive Preset = "intensive"
)

// GraphSettings is the per-user/per-graph scheduling configuration.
// The preset only seeds SMax and GFactor; both remain independently
// overridable after construction.
type GraphSettings struct {
	Preset           Preset  `json:"preset"`
	SMax             float64 `json:"s_max"`              // maximum interval, days
	GFactor          float64 `json:"g_factor"`           // growth multiplier
	PropagationDepth int     `json:"propagation_depth"`  // hop limit
	HorizonDays      int     `json:"horizon_days"`       // queue lookahead
	WeakThreshold    float64 `json:"weak_threshold"`     // strength cutoff for "weak"
	JitterEnabled    bool    `json:"jitter_enabled"`
}

// presetDefaults maps each preset to its default cap and growth factor
var presetDefaults = map[Preset]struct {
	sMax    float64
	gFactor float64
}{
	PresetGentle:    {sMax: 240, gFactor: 1.1},
	PresetBalanced:  {sMax: 180, gFactor: 1.0},
	PresetIntensive: {sMax: 120, gFactor: 0.9},
}

// NewGraphSettings creates settings with the preset's defaults applied
func NewGraphSettings(preset Preset) (GraphSettings, error) {
	defaults, ok := presetDefaults[preset]
	if !ok {
		return GraphSettings{}, pkgerrors.NewConfigurationError("unknown preset: " + string(preset))
	}

	return GraphSettings{
		Preset:           preset,
		SMax:             defaults.sMax,
		GFactor:          defaults.gFactor,
		PropagationDepth: 2,
		HorizonDays:      7,
		WeakThreshold:    0.4,
		JitterEnabled:    true,
	}, nil
}

// DefaultGraphSettings returns balanced settings
func DefaultGraphSettings() GraphSettings {
	settings, _ := NewGraphSettings(PresetBalanced)
	return settings
}

// Validate checks the settings for values that would corrupt scheduling
func (s GraphSettings) Validate() error {
	if s.SMax <= 0 {
		return pkgerrors.NewConfigurationError("sMax must be positive")
	}
	if s.GFactor <= 0 {
		return pkgerrors.NewConfigurationError("gFactor must be positive")
	}
	if s.PropagationDepth < 0 {
		return pkgerrors.NewConfigurationError("propagationDepth cannot be negative")
	}
	if s.HorizonDays < 0 {
		return pkgerrors.NewConfigurationError("horizonDays cannot be negative")
	}
	return nil
}
