// Package feasibility decides whether a finger can physically take a pad.
package feasibility

import (
	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/hand"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/tuning"
)

// Origin is where finger f would travel from: its own pad when placed, else
// the hand's centre of gravity, else the home pad.
func Origin(s hand.State, f model.Finger, home grid.GridPos) grid.Point {
	if pos, ok := s.Position(f); ok {
		return pos.Point()
	}
	if s.HasCenter {
		return s.Center
	}
	return home.Point()
}

// IsReachable reports whether f can travel from from to to.
func IsReachable(from grid.Point, to grid.GridPos, f model.Finger, c tuning.Constants) bool {
	return grid.Distance(from, to.Point()) <= c.MaxReach.Of(f)
}

// IsValidFingerOrder checks the posture s (with f already moved) for crossed
// fingers. Only pairs involving f are examined. On the right hand column
// order must follow thumb to pinky left to right; the left hand mirrors it.
func IsValidFingerOrder(s hand.State, f model.Finger, c tuning.Constants) bool {
	pos, ok := s.Position(f)
	if !ok {
		return true
	}
	for _, g := range model.Fingers {
		if g == f {
			continue
		}
		other, ok := s.Position(g)
		if !ok {
			continue
		}
		if !ordered(s.Hand, f, pos, g, other, c.FingerOrderTolerance) {
			return false
		}
	}
	return true
}

func ordered(h model.Hand, f model.Finger, fp grid.GridPos, g model.Finger, gp grid.GridPos, tol float64) bool {
	lo, hi := float64(fp.Col), float64(gp.Col)
	if f > g {
		lo, hi = hi, lo
	}
	if h == model.Left {
		return lo >= hi-tol
	}
	return lo <= hi+tol
}

// CanPlace combines the reach and order checks for moving f to to.
func CanPlace(s hand.State, f model.Finger, to, home grid.GridPos, c tuning.Constants) bool {
	if !IsReachable(Origin(s, f, home), to, f, c) {
		return false
	}
	return IsValidFingerOrder(s.With(f, to), f, c)
}

// FeasibleFingers lists, thumb first, the fingers of s that can take to.
func FeasibleFingers(s hand.State, to, home grid.GridPos, c tuning.Constants) []model.Finger {
	out := make([]model.Finger, 0, model.FingerCount)
	for _, f := range model.Fingers {
		if CanPlace(s, f, to, home, c) {
			out = append(out, f)
		}
	}
	return out
}

// CheckChordFeasibility reports whether the simultaneous notes can be covered
// by distinct fingers of one hand.
func CheckChordFeasibility(notes []grid.GridPos, s hand.State, home grid.GridPos, c tuning.Constants) bool {
	_, ok := AssignChord(notes, s, home, c)
	return ok
}

// AssignChord finds one finger per note, returned in note order. Reach is
// measured from the hand's posture before the chord; order is checked on the
// posture with the whole chord applied.
func AssignChord(notes []grid.GridPos, s hand.State, home grid.GridPos, c tuning.Constants) ([]model.Finger, bool) {
	if len(notes) > model.FingerCount {
		return nil, false
	}
	out := make([]model.Finger, len(notes))
	if len(notes) == 0 {
		return out, true
	}
	var used [model.FingerCount]bool

	var search func(i int, cur hand.State) bool
	search = func(i int, cur hand.State) bool {
		if i == len(notes) {
			for _, f := range out {
				if !IsValidFingerOrder(cur, f, c) {
					return false
				}
			}
			return true
		}
		for _, f := range model.Fingers {
			if used[f] || !IsReachable(Origin(s, f, home), notes[i], f, c) {
				continue
			}
			if !chordOrdered(s.Hand, f, notes[i], out[:i], notes[:i], c.FingerOrderTolerance) {
				continue
			}
			used[f] = true
			out[i] = f
			if search(i+1, cur.With(f, notes[i])) {
				return true
			}
			used[f] = false
		}
		return false
	}

	if !search(0, s) {
		return nil, false
	}
	return out, true
}

// chordOrdered prunes against the chord fingers already chosen.
func chordOrdered(h model.Hand, f model.Finger, pos grid.GridPos, chosen []model.Finger, at []grid.GridPos, tol float64) bool {
	for j, g := range chosen {
		if !ordered(h, f, pos, g, at[j], tol) {
			return false
		}
	}
	return true
}
