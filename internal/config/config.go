// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; files and environment only override.
// - Engine tuning lives under the "engine" key and maps onto tuning.Constants.
// - Load errors wrap ErrLoadConfig, validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/tuning"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of solver workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many job IDs are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	Store  StoreConfig  `koanf:"store"`
	Engine EngineConfig `koanf:"engine"`
}

// StoreConfig selects where published results live.
type StoreConfig struct {
	Backend string `koanf:"backend"` // memory or sqlite
	Path    string `koanf:"path"`    // database file for sqlite
}

// Pad is a grid position in configuration files.
type Pad struct {
	Row int `koanf:"row"`
	Col int `koanf:"col"`
}

// EngineConfig mirrors tuning.Constants. Per-finger lists are ordered thumb to pinky.
type EngineConfig struct {
	MaxReach             []float64 `koanf:"max_reach"`
	FingerOrderTolerance float64   `koanf:"finger_order_tolerance"`
	LeftHome             Pad       `koanf:"left_home"`
	RightHome            Pad       `koanf:"right_home"`

	MovementWeight        float64   `koanf:"movement_weight"`
	FingerEffort          []float64 `koanf:"finger_effort"`
	StretchWeight         float64   `koanf:"stretch_weight"`
	ComfortableSpan       float64   `koanf:"comfortable_span"`
	DriftWeight           float64   `koanf:"drift_weight"`
	BounceWeight          float64   `koanf:"bounce_weight"`
	BounceWindow          float64   `koanf:"bounce_window"`
	AlternateFingerFactor float64   `koanf:"alternate_finger_factor"`
	BounceHistorySize     int       `koanf:"bounce_history_size"`
	FatigueWeight         float64   `koanf:"fatigue_weight"`
	FatigueIncrement      float64   `koanf:"fatigue_increment"`
	FatigueDecayRate      float64   `koanf:"fatigue_decay_rate"`

	LookaheadInfeasiblePenalty  float64 `koanf:"lookahead_infeasible_penalty"`
	LookaheadExpensiveThreshold float64 `koanf:"lookahead_expensive_threshold"`
	LookaheadFraction           float64 `koanf:"lookahead_fraction"`

	EasyMax           float64 `koanf:"easy_max"`
	MediumMax         float64 `koanf:"medium_max"`
	HardMax           float64 `koanf:"hard_max"`
	HardPenalty       float64 `koanf:"hard_penalty"`
	UnplayablePenalty float64 `koanf:"unplayable_penalty"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		QueueSize:   1024,
		WorkerCount: runtime.NumCPU(),
		DedupeSize:  10_000,
		Store:       StoreConfig{Backend: BackendMemory},
		Engine:      FromConstants(tuning.Default()),
	}
}

// FromConstants converts tuning constants to their configuration form.
func FromConstants(c tuning.Constants) EngineConfig { //nolint:gocritic // converted once at startup
	return EngineConfig{
		MaxReach:                    c.MaxReach[:],
		FingerOrderTolerance:        c.FingerOrderTolerance,
		LeftHome:                    Pad{Row: c.LeftHome.Row, Col: c.LeftHome.Col},
		RightHome:                   Pad{Row: c.RightHome.Row, Col: c.RightHome.Col},
		MovementWeight:              c.MovementWeight,
		FingerEffort:                c.FingerEffort[:],
		StretchWeight:               c.StretchWeight,
		ComfortableSpan:             c.ComfortableSpan,
		DriftWeight:                 c.DriftWeight,
		BounceWeight:                c.BounceWeight,
		BounceWindow:                c.BounceWindow,
		AlternateFingerFactor:       c.AlternateFingerFactor,
		BounceHistorySize:           c.BounceHistorySize,
		FatigueWeight:               c.FatigueWeight,
		FatigueIncrement:            c.FatigueIncrement,
		FatigueDecayRate:            c.FatigueDecayRate,
		LookaheadInfeasiblePenalty:  c.LookaheadInfeasiblePenalty,
		LookaheadExpensiveThreshold: c.LookaheadExpensiveThreshold,
		LookaheadFraction:           c.LookaheadFraction,
		EasyMax:                     c.EasyMax,
		MediumMax:                   c.MediumMax,
		HardMax:                     c.HardMax,
		HardPenalty:                 c.HardPenalty,
		UnplayablePenalty:           c.UnplayablePenalty,
	}
}

// Constants converts the engine section into validated tuning constants.
// Resting finger offsets are not configurable and keep their defaults.
func (e *EngineConfig) Constants() (tuning.Constants, error) {
	c := tuning.Default()
	if err := perFinger("max_reach", e.MaxReach, &c.MaxReach); err != nil {
		return c, err
	}
	if err := perFinger("finger_effort", e.FingerEffort, &c.FingerEffort); err != nil {
		return c, err
	}
	c.FingerOrderTolerance = e.FingerOrderTolerance
	c.LeftHome = grid.GridPos{Row: e.LeftHome.Row, Col: e.LeftHome.Col}
	c.RightHome = grid.GridPos{Row: e.RightHome.Row, Col: e.RightHome.Col}
	c.MovementWeight = e.MovementWeight
	c.StretchWeight = e.StretchWeight
	c.ComfortableSpan = e.ComfortableSpan
	c.DriftWeight = e.DriftWeight
	c.BounceWeight = e.BounceWeight
	c.BounceWindow = e.BounceWindow
	c.AlternateFingerFactor = e.AlternateFingerFactor
	c.BounceHistorySize = e.BounceHistorySize
	c.FatigueWeight = e.FatigueWeight
	c.FatigueIncrement = e.FatigueIncrement
	c.FatigueDecayRate = e.FatigueDecayRate
	c.LookaheadInfeasiblePenalty = e.LookaheadInfeasiblePenalty
	c.LookaheadExpensiveThreshold = e.LookaheadExpensiveThreshold
	c.LookaheadFraction = e.LookaheadFraction
	c.EasyMax = e.EasyMax
	c.MediumMax = e.MediumMax
	c.HardMax = e.HardMax
	c.HardPenalty = e.HardPenalty
	c.UnplayablePenalty = e.UnplayablePenalty

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

func perFinger(name string, in []float64, out *tuning.PerFinger) error {
	if len(in) != model.FingerCount {
		return fmt.Errorf("%w: engine.%s needs %d values, got %d", ErrInvalidConfig, name, model.FingerCount, len(in))
	}
	copy(out[:], in)
	return nil
}

// Validate checks the service settings and the engine section.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.Store.Backend != BackendMemory && c.Store.Backend != BackendSQLite:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	case c.Store.Backend == BackendSQLite && c.Store.Path == "":
		return fmt.Errorf("%w: store.path is required for sqlite", ErrInvalidConfig)
	}
	_, err := c.Engine.Constants()
	return err
}
