// Package model defines shared data structures.
package model

import (
	"fmt"
	"sort"
)

// ParamCount is the number of tuning parameters carried by every attempt.
const ParamCount = 5

// Params holds the tuning parameters of a level, in input order.
type Params [ParamCount]int

// AttemptRecord is one parsed line of the gameplay log.
type AttemptRecord struct {
	ID        int
	Params    Params
	UserSkill int
	Attempts  int
	Level     int
}

// Curve maps a level to its saw-tooth target attempt count.
type Curve map[int]int

// DefaultCurve returns a fresh copy of the built-in saw-tooth curve.
func DefaultCurve() Curve {
	return Curve{1: 1, 2: 2, 3: 4, 4: 6, 5: 2, 6: 3, 7: 5, 8: 7, 9: 2, 10: 4}
}

// Target returns the target attempt count for a level.
func (c Curve) Target(level int) (int, bool) {
	target, ok := c[level]
	return target, ok
}

// Levels returns the curve's levels in ascending order.
func (c Curve) Levels() []int {
	levels := make([]int, 0, len(c))
	for level := range c {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// Validate checks that levels are positive and targets non-negative.
func (c Curve) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("curve has no levels")
	}
	for level, target := range c {
		if level <= 0 {
			return fmt.Errorf("curve level %d must be > 0", level)
		}
		if target < 0 {
			return fmt.Errorf("curve target for level %d must be >= 0, got %d", level, target)
		}
	}
	return nil
}

// Ranges bounds the dense centroid table. Both ends are inclusive.
type Ranges struct {
	MinLevel    int
	MaxLevel    int
	MinAttempts int
	MaxAttempts int
}

// MaxCells caps the dense table size so a bad bound cannot exhaust memory.
const MaxCells = 1 << 18

// DefaultRanges covers levels 1-10 and attempts 0-10.
func DefaultRanges() Ranges {
	return Ranges{MinLevel: 1, MaxLevel: 10, MinAttempts: 0, MaxAttempts: 10}
}

// Contains reports whether (level, attempts) lies inside the ranges.
func (r Ranges) Contains(level, attempts int) bool {
	return level >= r.MinLevel && level <= r.MaxLevel &&
		attempts >= r.MinAttempts && attempts <= r.MaxAttempts
}

// Levels returns the number of levels covered.
func (r Ranges) Levels() int {
	return r.MaxLevel - r.MinLevel + 1
}

// Attempts returns the number of attempt counts covered.
func (r Ranges) Attempts() int {
	return r.MaxAttempts - r.MinAttempts + 1
}

// Validate checks that the ranges are non-empty and well-formed.
func (r Ranges) Validate() error {
	if r.MinLevel <= 0 {
		return fmt.Errorf("min level must be > 0, got %d", r.MinLevel)
	}
	if r.MaxLevel < r.MinLevel {
		return fmt.Errorf("max level %d is below min level %d", r.MaxLevel, r.MinLevel)
	}
	if r.MinAttempts < 0 {
		return fmt.Errorf("min attempts must be >= 0, got %d", r.MinAttempts)
	}
	if r.MaxAttempts < r.MinAttempts {
		return fmt.Errorf("max attempts %d is below min attempts %d", r.MaxAttempts, r.MinAttempts)
	}
	levels := uint64(r.MaxLevel-r.MinLevel) + 1
	attempts := uint64(r.MaxAttempts-r.MinAttempts) + 1
	if levels > MaxCells || attempts > MaxCells/levels {
		return fmt.Errorf("%s needs more than %d cells", r, MaxCells)
	}
	return nil
}

func (r Ranges) String() string {
	return fmt.Sprintf("levels %d-%d, attempts %d-%d", r.MinLevel, r.MaxLevel, r.MinAttempts, r.MaxAttempts)
}

// Action is the outcome of comparing an attempt count to the curve.
type Action int

// Classification actions.
const (
	OnCurve Action = iota
	BelowCurve
	AboveCurve
)

func (a Action) String() string {
	switch a {
	case OnCurve:
		return "ON_CURVE"
	case BelowCurve:
		return "BELOW_CURVE"
	case AboveCurve:
		return "ABOVE_CURVE"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// MarshalText renders the action name for JSON and TOML output.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Decision is the classification of one attempt record.
type Decision struct {
	RecordID int
	Level    int
	Attempts int
	Target   int
	Action   Action
	// Params holds the parameters to apply. It is only meaningful when
	// HasParams is true.
	Params       Params
	HasParams    bool
	FromCentroid bool
}

// RangeLimits bounds what DeriveRanges may grow to. Records past a limit
// stay outside the table and are rejected as out of range.
type RangeLimits struct {
	MaxLevel    int
	MaxAttempts int
}

// DefaultRangeLimits keeps a derived table within MaxCells.
func DefaultRangeLimits() RangeLimits {
	return RangeLimits{MaxLevel: 500, MaxAttempts: 500}
}

// RunConfig defines settings for a single tuning run.
type RunConfig struct {
	Curve      Curve
	Ranges     Ranges
	AutoRange  bool
	AutoLimits RangeLimits
	Workers    int
	Format     string
	Debug      bool
}
