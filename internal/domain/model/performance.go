package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/padflow/internal/domain/grid"
)

// DefaultBeatsPerMeasure applies when a performance does not state its meter.
const DefaultBeatsPerMeasure = 4

// Sentinel errors for malformed inputs.
var (
	ErrInvalidTempo   = errors.New("invalid tempo")
	ErrInvalidSection = errors.New("invalid section")
)

// NoteEvent is a single note onset.
type NoteEvent struct {
	Pitch     int     `json:"pitch" yaml:"pitch"`         // MIDI pitch 0-127
	StartTime float64 `json:"startTime" yaml:"startTime"` // seconds from the start of the performance
}

// Performance is a captured list of note events with its tempo.
type Performance struct {
	Events          []NoteEvent `json:"events" yaml:"events"`
	Tempo           float64     `json:"tempo" yaml:"tempo"` // BPM
	BeatsPerMeasure int         `json:"beatsPerMeasure,omitempty" yaml:"beatsPerMeasure,omitempty"`
}

// SecondsPerMeasure converts the tempo into measure length.
func (p Performance) SecondsPerMeasure() float64 {
	beats := p.BeatsPerMeasure
	if beats <= 0 {
		beats = DefaultBeatsPerMeasure
	}
	return float64(beats) * 60 / p.Tempo
}

// MeasureAt returns the 1-based measure containing t.
func (p Performance) MeasureAt(t float64) int {
	return int(math.Floor(t/p.SecondsPerMeasure())) + 1
}

// Validate rejects performances whose tempo cannot place events in measures.
func (p Performance) Validate() error {
	if math.IsNaN(p.Tempo) || math.IsInf(p.Tempo, 0) || p.Tempo <= 0 {
		return fmt.Errorf("%w: %v bpm", ErrInvalidTempo, p.Tempo)
	}
	return nil
}

// SectionMap binds a pitch mapping to a contiguous measure range.
type SectionMap struct {
	Name             string            `json:"name,omitempty" yaml:"name,omitempty"`
	StartMeasure     int               `json:"startMeasure" yaml:"startMeasure"`
	LengthInMeasures int               `json:"lengthInMeasures" yaml:"lengthInMeasures"`
	PitchMapping     grid.PitchMapping `json:"pitchMapping" yaml:"pitchMapping"`

	// Optional home pads while this section is active.
	LeftHome  *grid.GridPos `json:"leftHome,omitempty" yaml:"leftHome,omitempty"`
	RightHome *grid.GridPos `json:"rightHome,omitempty" yaml:"rightHome,omitempty"`
}

// EndMeasure is the last measure covered by the section.
func (s SectionMap) EndMeasure() int {
	return s.StartMeasure + s.LengthInMeasures - 1
}

// Contains reports whether measure falls inside the section.
func (s SectionMap) Contains(measure int) bool {
	return measure >= s.StartMeasure && measure <= s.EndMeasure()
}

// Home returns the section's home pad for h, if it defines one.
func (s SectionMap) Home(h Hand) (grid.GridPos, bool) {
	var p *grid.GridPos
	switch h {
	case Left:
		p = s.LeftHome
	case Right:
		p = s.RightHome
	}
	if p == nil {
		return grid.GridPos{}, false
	}
	return *p, true
}

// Validate checks the measure range, mapping shape and optional homes.
func (s SectionMap) Validate() error {
	if s.StartMeasure < 1 {
		return fmt.Errorf("%w: start measure %d < 1", ErrInvalidSection, s.StartMeasure)
	}
	if s.LengthInMeasures < 1 {
		return fmt.Errorf("%w: length %d < 1", ErrInvalidSection, s.LengthInMeasures)
	}
	if _, err := s.PitchMapping.Normalize(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSection, err)
	}
	for _, h := range Hands {
		if home, ok := s.Home(h); ok && !home.InBounds() {
			return fmt.Errorf("%w: %s home %s off grid", ErrInvalidSection, h, home)
		}
	}
	return nil
}

// SolveRequest bundles everything a single solve needs.
type SolveRequest struct {
	Performance Performance  `json:"performance" yaml:"performance"`
	Sections    []SectionMap `json:"sections" yaml:"sections"`
	Overrides   Overrides    `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Validate reports the problems a solver would reject the request for: a
// tempo that cannot place events in measures, or a malformed section.
func (r SolveRequest) Validate() error { //nolint:gocritic // validated once per request
	if err := r.Performance.Validate(); err != nil {
		return err
	}
	for i, sec := range r.Sections {
		if err := sec.Validate(); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
	}
	return nil
}

// Job is a solve request travelling through the asynchronous pipeline.
// Revision orders results for one project; higher revisions supersede lower ones.
type Job struct {
	ID        string       `json:"jobId"`
	ProjectID string       `json:"projectId"`
	Revision  int64        `json:"revision"`
	Request   SolveRequest `json:"request"`
}
