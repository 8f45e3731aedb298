package model

import (
	"encoding/json"
	"math"
	"time"
)

// Difficulty labels a played event by its cost.
type Difficulty string

// Difficulty levels, easiest first.
const (
	Easy       Difficulty = "Easy"
	Medium     Difficulty = "Medium"
	Hard       Difficulty = "Hard"
	Impossible Difficulty = "Unplayable"
)

// Rank orders difficulties: Easy < Medium < Hard < Unplayable.
func (d Difficulty) Rank() int {
	switch d {
	case Easy:
		return 0
	case Medium:
		return 1
	case Hard:
		return 2
	default:
		return 3
	}
}

// Reasons attached to unplayable events.
const (
	ReasonNoSection     = "no_section"
	ReasonUnmappedPitch = "unmapped_pitch"
	ReasonNoCandidate   = "no_candidate"
)

// DebugEvent records the decision taken for one input note.
type DebugEvent struct {
	Index      int        `json:"index"` // position in the caller's event list
	Pitch      int        `json:"pitch"`
	StartTime  float64    `json:"startTime"`
	Hand       Hand       `json:"hand"`
	Finger     Finger     `json:"finger"`
	Cost       float64    `json:"cost"` // +Inf when unplayable
	Difficulty Difficulty `json:"difficulty"`
	Row        int        `json:"row"`
	Col        int        `json:"col"`
	Mapped     bool       `json:"mapped"` // Row/Col are meaningful
	Overridden bool       `json:"overridden,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// Playable reports whether a hand and finger were assigned. An assigned event
// can still be labelled Unplayable when its cost exceeds every threshold.
func (e DebugEvent) Playable() bool {
	return e.Hand.Valid() && e.Finger.Valid()
}

type debugEventJSON DebugEvent

type debugEventWire struct {
	debugEventJSON
	Cost *float64 `json:"cost"`
}

// MarshalJSON encodes an infinite cost as null; encoding/json rejects Inf.
func (e DebugEvent) MarshalJSON() ([]byte, error) {
	w := debugEventWire{debugEventJSON: debugEventJSON(e)}
	if !math.IsInf(e.Cost, 0) && !math.IsNaN(e.Cost) {
		c := e.Cost
		w.Cost = &c
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores a null cost as +Inf.
func (e *DebugEvent) UnmarshalJSON(b []byte) error {
	var w debugEventWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = DebugEvent(w.debugEventJSON)
	if w.Cost == nil {
		e.Cost = math.Inf(1)
	} else {
		e.Cost = *w.Cost
	}
	return nil
}

// EngineResult is the outcome of one solve.
type EngineResult struct {
	Score           float64            `json:"score"`
	UnplayableCount int                `json:"unplayableCount"`
	HardCount       int                `json:"hardCount"`
	DebugEvents     []DebugEvent       `json:"debugEvents"`
	FingerUsage     map[string]int     `json:"fingerUsage"`
	FatigueMap      map[string]float64 `json:"fatigueMap"`
	AverageDrift    float64            `json:"averageDrift"`
}

// SolveRecord is a finished solve as kept by the result store.
type SolveRecord struct {
	JobID     string       `json:"jobId"`
	ProjectID string       `json:"projectId"`
	Revision  int64        `json:"revision"`
	Result    EngineResult `json:"result"`
	SolvedAt  time.Time    `json:"solvedAt"`
}
