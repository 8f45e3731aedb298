// Package analysis derives transition statistics from a solver trace.
package analysis

import (
	"cmp"
	"slices"

	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/model"
)

// Transition describes the move between two consecutive notes.
type Transition struct {
	From       int     `json:"from"` // event index
	To         int     `json:"to"`
	TimeDelta  float64 `json:"timeDelta"`
	Distance   float64 `json:"distance"` // pads between the two targets, 0 when either is unmapped
	HandSwitch bool    `json:"handSwitch"`
	SameFinger bool    `json:"sameFinger"`
	Speed      float64 `json:"speed"` // pads per second, 0 for simultaneous notes
}

// Transitions pairs every event with its successor in time order.
// HandSwitch and SameFinger are false when either side is unplayable.
func Transitions(events []model.DebugEvent) []Transition {
	if len(events) < 2 {
		return nil
	}
	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b model.DebugEvent) int {
		return cmp.Compare(a.StartTime, b.StartTime)
	})

	out := make([]Transition, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		a, b := ordered[i-1], ordered[i]
		t := Transition{From: a.Index, To: b.Index, TimeDelta: b.StartTime - a.StartTime}
		if a.Mapped && b.Mapped {
			t.Distance = grid.Distance(
				grid.GridPos{Row: a.Row, Col: a.Col}.Point(),
				grid.GridPos{Row: b.Row, Col: b.Col}.Point(),
			)
			if t.TimeDelta > 0 {
				t.Speed = t.Distance / t.TimeDelta
			}
		}
		if a.Playable() && b.Playable() {
			t.HandSwitch = a.Hand != b.Hand
			t.SameFinger = !t.HandSwitch && a.Finger == b.Finger
		}
		out = append(out, t)
	}
	return out
}

// Balance counts events per hand.
type Balance struct {
	Left       int `json:"left"`
	Right      int `json:"right"`
	Unplayable int `json:"unplayable"`
}

// LeftShare is the fraction of played notes taken by the left hand.
func (b Balance) LeftShare() float64 {
	played := b.Left + b.Right
	if played == 0 {
		return 0
	}
	return float64(b.Left) / float64(played)
}

// HandBalance counts how many events each hand played.
func HandBalance(events []model.DebugEvent) Balance {
	var b Balance
	for _, ev := range events {
		switch {
		case !ev.Playable():
			b.Unplayable++
		case ev.Hand == model.Left:
			b.Left++
		default:
			b.Right++
		}
	}
	return b
}

// ChokePoints returns the indices of events at or above the given difficulty.
func ChokePoints(events []model.DebugEvent, atLeast model.Difficulty) []int {
	var out []int
	for _, ev := range events {
		if ev.Difficulty.Rank() >= atLeast.Rank() {
			out = append(out, ev.Index)
		}
	}
	return out
}

// Summary bundles the derived statistics of one trace.
type Summary struct {
	Transitions  []Transition `json:"transitions"`
	Balance      Balance      `json:"balance"`
	HandSwitches int          `json:"handSwitches"`
	SameFinger   int          `json:"sameFinger"`
	MaxSpeed     float64      `json:"maxSpeed"`
	ChokePoints  []int        `json:"chokePoints"`
}

// Summarize computes a Summary, flagging events that are Hard or worse.
func Summarize(events []model.DebugEvent) Summary {
	s := Summary{
		Transitions: Transitions(events),
		Balance:     HandBalance(events),
		ChokePoints: ChokePoints(events, model.Hard),
	}
	for _, t := range s.Transitions {
		if t.HandSwitch {
			s.HandSwitches++
		}
		if t.SameFinger {
			s.SameFinger++
		}
		if t.Speed > s.MaxSpeed {
			s.MaxSpeed = t.Speed
		}
	}
	return s
}
