// Package hand tracks the position and fatigue of one hand's five fingers.
//
// State is a value type. Copying it yields an independent snapshot, which is
// what hypothetical moves and lookahead rely on; only Commit changes fatigue.
package hand

import (
	"math"

	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/tuning"
)

// FingerState is where a finger rests and how tired it is.
type FingerState struct {
	Pos     grid.GridPos
	Placed  bool
	Fatigue float64
}

// State is one hand. Center, HasCenter and Span are derived from the placed
// fingers and refreshed after every mutation.
type State struct {
	Hand    model.Hand
	Fingers [model.FingerCount]FingerState

	Center    grid.Point
	HasCenter bool
	Span      float64
}

// New returns hand h in its neutral posture around home: every finger with a
// configured resting offset sits on its resting pad, fatigue is zero.
func New(h model.Hand, home grid.GridPos, c tuning.Constants) State {
	s := State{Hand: h}
	for _, f := range model.Fingers {
		if pos, ok := c.RestingPos(h, f, home); ok {
			s.Fingers[f] = FingerState{Pos: pos, Placed: true}
		}
	}
	s.recompute()
	return s
}

// Finger returns the state of f.
func (s State) Finger(f model.Finger) FingerState {
	return s.Fingers[f]
}

// Position returns the pad of f and whether f has been placed.
func (s State) Position(f model.Finger) (grid.GridPos, bool) {
	fs := s.Fingers[f]
	return fs.Pos, fs.Placed
}

// With returns a copy of s with f moved to pos. Fatigue is untouched.
func (s State) With(f model.Finger, pos grid.GridPos) State {
	s.Fingers[f].Pos = pos
	s.Fingers[f].Placed = true
	s.recompute()
	return s
}

// Commit moves f to pos, charges it one strike of fatigue, then lets every
// finger of the hand recover for elapsed seconds.
func (s *State) Commit(f model.Finger, pos grid.GridPos, elapsed float64, c tuning.Constants) {
	s.Fingers[f].Pos = pos
	s.Fingers[f].Placed = true
	s.Fingers[f].Fatigue += c.FatigueIncrement
	s.Decay(elapsed, c.FatigueDecayRate)
	s.recompute()
}

// Decay lowers every finger's fatigue by rate*elapsed, never below zero.
func (s *State) Decay(elapsed, rate float64) {
	if elapsed <= 0 || rate <= 0 {
		return
	}
	for i := range s.Fingers {
		s.Fingers[i].Fatigue = math.Max(0, s.Fingers[i].Fatigue-rate*elapsed)
	}
}

// SpanWith is the span the hand would have with f moved to pos.
func (s State) SpanWith(f model.Finger, pos grid.GridPos) float64 {
	return s.With(f, pos).Span
}

// Placed returns the fingers that currently rest on a pad, thumb first.
func (s State) Placed() []model.Finger {
	out := make([]model.Finger, 0, model.FingerCount)
	for _, f := range model.Fingers {
		if s.Fingers[f].Placed {
			out = append(out, f)
		}
	}
	return out
}

func (s *State) recompute() {
	var sumRow, sumCol float64
	n := 0
	span := 0.0
	for i, a := range s.Fingers {
		if !a.Placed {
			continue
		}
		n++
		sumRow += float64(a.Pos.Row)
		sumCol += float64(a.Pos.Col)
		for _, b := range s.Fingers[i+1:] {
			if b.Placed {
				span = math.Max(span, grid.Distance(a.Pos.Point(), b.Pos.Point()))
			}
		}
	}
	s.Span = span
	s.HasCenter = n > 0
	if n == 0 {
		s.Center = grid.Point{}
		return
	}
	s.Center = grid.Point{Row: sumRow / float64(n), Col: sumCol / float64(n)}
}
