// Package tuning holds the biomechanical constants the solver and cost model
// are parameterised with. Nothing in the cost functions is hard-coded.
package tuning

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/model"
)

// ErrInvalidConstants is returned by Validate.
var ErrInvalidConstants = errors.New("invalid engine constants")

// PerFinger holds one value per finger, indexed by model.Finger.
type PerFinger [model.FingerCount]float64

// Of returns the value for f.
func (p PerFinger) Of(f model.Finger) float64 { return p[f] }

// Constants parameterises feasibility, costs, fatigue, lookahead and scoring.
type Constants struct {
	// Feasibility.
	MaxReach             PerFinger // max pad distance a finger travels in one move
	FingerOrderTolerance float64   // columns two fingers may cross before the posture is invalid

	// Neutral posture. Offsets are given for the right hand; the left hand mirrors columns.
	LeftHome       grid.GridPos
	RightHome      grid.GridPos
	RestingOffsets map[model.Finger]grid.GridPos

	// Cost weights.
	MovementWeight        float64
	FingerEffort          PerFinger // per-finger multiplier on movement
	StretchWeight         float64
	ComfortableSpan       float64
	DriftWeight           float64
	BounceWeight          float64
	BounceWindow          float64 // seconds
	AlternateFingerFactor float64 // bounce multiplier when a different finger re-strikes the pitch
	BounceHistorySize     int
	FatigueWeight         float64

	// Fatigue dynamics.
	FatigueIncrement float64 // added to a finger per strike
	FatigueDecayRate float64 // subtracted per second of elapsed time

	// Lookahead.
	LookaheadInfeasiblePenalty  float64
	LookaheadExpensiveThreshold float64
	LookaheadFraction           float64

	// Difficulty thresholds on the winning cost.
	EasyMax   float64
	MediumMax float64
	HardMax   float64

	// Score deductions.
	HardPenalty       float64
	UnplayablePenalty float64
}

// Default returns the stock tuning.
func Default() Constants {
	return Constants{
		MaxReach:             PerFinger{4.0, 5.0, 5.0, 4.5, 4.0},
		FingerOrderTolerance: 0,

		LeftHome:  grid.GridPos{Row: 1, Col: 2},
		RightHome: grid.GridPos{Row: 1, Col: 5},
		RestingOffsets: map[model.Finger]grid.GridPos{
			model.Thumb:  {Row: -1, Col: -1},
			model.Index:  {Row: 0, Col: 0},
			model.Middle: {Row: 1, Col: 1},
			model.Ring:   {Row: 1, Col: 2},
			model.Pinky:  {Row: 0, Col: 3},
		},

		MovementWeight:        1.0,
		FingerEffort:          PerFinger{1.2, 1.0, 1.0, 1.2, 1.4},
		StretchWeight:         1.5,
		ComfortableSpan:       4.0,
		DriftWeight:           0.5,
		BounceWeight:          4.0,
		BounceWindow:          0.5,
		AlternateFingerFactor: 0.5,
		BounceHistorySize:     8,
		FatigueWeight:         0.5,

		FatigueIncrement: 1.0,
		FatigueDecayRate: 0.5,

		LookaheadInfeasiblePenalty:  50,
		LookaheadExpensiveThreshold: 5,
		LookaheadFraction:           0.25,

		EasyMax:   3,
		MediumMax: 10,
		HardMax:   100,

		HardPenalty:       5,
		UnplayablePenalty: 20,
	}
}

// Home returns the configured home pad for h.
func (c Constants) Home(h model.Hand) grid.GridPos {
	if h == model.Left {
		return c.LeftHome
	}
	return c.RightHome
}

// RestingPos returns the neutral pad of finger f on hand h around home, or false
// when no resting layout is configured for f.
func (c Constants) RestingPos(h model.Hand, f model.Finger, home grid.GridPos) (grid.GridPos, bool) {
	off, ok := c.RestingOffsets[f]
	if !ok {
		return grid.GridPos{}, false
	}
	dc := off.Col
	if h == model.Left {
		dc = -dc
	}
	return grid.GridPos{Row: home.Row + off.Row, Col: home.Col + dc}.Clamp(), true
}

// Difficulty labels a winning cost.
func (c Constants) Difficulty(cost float64) model.Difficulty {
	switch {
	case math.IsInf(cost, 0) || math.IsNaN(cost):
		return model.Impossible
	case cost <= c.EasyMax:
		return model.Easy
	case cost <= c.MediumMax:
		return model.Medium
	case cost <= c.HardMax:
		return model.Hard
	default:
		return model.Impossible
	}
}

// Validate checks that every constant is usable.
func (c Constants) Validate() error {
	for _, f := range model.Fingers {
		if !(c.MaxReach.Of(f) > 0) {
			return fmt.Errorf("%w: max reach for %s must be positive", ErrInvalidConstants, f)
		}
		if c.FingerEffort.Of(f) < 0 {
			return fmt.Errorf("%w: effort for %s must not be negative", ErrInvalidConstants, f)
		}
	}
	if !c.LeftHome.InBounds() || !c.RightHome.InBounds() {
		return fmt.Errorf("%w: home pads must be on the grid", ErrInvalidConstants)
	}
	nonNegative := map[string]float64{
		"finger_order_tolerance":        c.FingerOrderTolerance,
		"movement_weight":               c.MovementWeight,
		"stretch_weight":                c.StretchWeight,
		"comfortable_span":              c.ComfortableSpan,
		"drift_weight":                  c.DriftWeight,
		"bounce_weight":                 c.BounceWeight,
		"bounce_window":                 c.BounceWindow,
		"alternate_finger_factor":       c.AlternateFingerFactor,
		"fatigue_weight":                c.FatigueWeight,
		"fatigue_increment":             c.FatigueIncrement,
		"fatigue_decay_rate":            c.FatigueDecayRate,
		"lookahead_infeasible_penalty":  c.LookaheadInfeasiblePenalty,
		"lookahead_expensive_threshold": c.LookaheadExpensiveThreshold,
		"lookahead_fraction":            c.LookaheadFraction,
		"hard_penalty":                  c.HardPenalty,
		"unplayable_penalty":            c.UnplayablePenalty,
	}
	for name, v := range nonNegative {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConstants, name)
		}
	}
	if c.BounceHistorySize < 0 {
		return fmt.Errorf("%w: bounce_history_size must not be negative", ErrInvalidConstants)
	}
	if !(c.EasyMax <= c.MediumMax && c.MediumMax <= c.HardMax) {
		return fmt.Errorf("%w: difficulty thresholds must be ascending", ErrInvalidConstants)
	}
	return nil
}
