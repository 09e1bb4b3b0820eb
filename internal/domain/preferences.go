package domain

import (
	"fmt"
	"math"
)

// Default preference values
const (
	DefaultThreshold = 0.8
	DefaultOutputDir = "duplicates"
)

// Preferences is the immutable configuration of one run
type Preferences struct {
	PreferCover   bool
	PreferLyrics  bool
	PreferQuality bool

	Action Action

	// OutputDir is only used by the move action
	OutputDir string

	// Threshold is the filename similarity threshold in [0,1]
	Threshold float64
}

// DefaultPreferences returns report-only preferences with the default threshold
func DefaultPreferences() Preferences {
	return Preferences{
		Action:    ActionReport,
		OutputDir: DefaultOutputDir,
		Threshold: DefaultThreshold,
	}
}

// Validate returns an error describing the first invalid field
func (p Preferences) Validate() error {
	if !p.Action.IsValid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidPreferences, p.Action)
	}
	if !ValidThreshold(p.Threshold) {
		return fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidPreferences, p.Threshold)
	}
	if p.Action == ActionMove && p.OutputDir == "" {
		return fmt.Errorf("%w: move requires an output directory", ErrInvalidPreferences)
	}
	return nil
}

// Normalize returns a copy with invalid fields replaced by safe defaults.
// Configuration mistakes degrade to report-only rather than aborting.
func (p Preferences) Normalize() Preferences {
	if !p.Action.IsValid() {
		p.Action = ActionReport
	}
	if !ValidThreshold(p.Threshold) {
		p.Threshold = DefaultThreshold
	}
	if p.OutputDir == "" {
		p.OutputDir = DefaultOutputDir
	}
	return p
}

// ValidThreshold reports whether t is a usable similarity threshold
func ValidThreshold(t float64) bool {
	return !math.IsNaN(t) && t >= 0 && t <= 1
}
