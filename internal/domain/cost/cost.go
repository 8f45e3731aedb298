// Package cost scores a candidate finger placement. Every function is pure and
// reads its weights from tuning.Constants.
package cost

import (
	"math"

	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/hand"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/tuning"
)

// MovementCost grows with the distance travelled, scaled by the finger's effort.
// A finger without a previous pad moves for free.
func MovementCost(from *grid.GridPos, to grid.GridPos, f model.Finger, c tuning.Constants) float64 {
	if from == nil {
		return 0
	}
	return c.MovementWeight * grid.Distance(from.Point(), to.Point()) * c.FingerEffort.Of(f)
}

// StretchPenalty charges the part of the resulting span beyond the comfortable span.
func StretchPenalty(s hand.State, to grid.GridPos, f model.Finger, c tuning.Constants) float64 {
	return c.StretchWeight * math.Max(0, s.SpanWith(f, to)-c.ComfortableSpan)
}

// DriftPenalty charges the distance of the hand's centre of gravity from home.
func DriftPenalty(s hand.State, home grid.GridPos, c tuning.Constants) float64 {
	if !s.HasCenter {
		return 0
	}
	return c.DriftWeight * grid.Distance(s.Center, home.Point())
}

// BouncePenalty charges re-striking pitch shortly after it was last struck.
// The penalty fades linearly to zero over the bounce window and is reduced
// when a different finger takes the repeat.
func BouncePenalty(pitch int, a model.Assignment, now float64, h *History, c tuning.Constants) float64 {
	if c.BounceWindow <= 0 {
		return 0
	}
	last, ok := h.Last(pitch)
	if !ok {
		return 0
	}
	gap := now - last.Time
	if gap < 0 || gap >= c.BounceWindow {
		return 0
	}
	p := c.BounceWeight * (1 - gap/c.BounceWindow)
	if last.Hand != a.Hand || last.Finger != a.Finger {
		p *= c.AlternateFingerFactor
	}
	return p
}

// FatigueCost reads the finger's accumulated fatigue.
func FatigueCost(s hand.State, f model.Finger, c tuning.Constants) float64 {
	return c.FatigueWeight * s.Finger(f).Fatigue
}

// Move describes a candidate strike.
type Move struct {
	Finger model.Finger
	To     grid.GridPos
	Home   grid.GridPos
	Pitch  int
	Time   float64
}

// Breakdown holds the five cost terms of one candidate.
type Breakdown struct {
	Movement float64 `json:"movement"`
	Stretch  float64 `json:"stretch"`
	Drift    float64 `json:"drift"`
	Bounce   float64 `json:"bounce"`
	Fatigue  float64 `json:"fatigue"`
}

// Total sums the terms.
func (b Breakdown) Total() float64 {
	return b.Movement + b.Stretch + b.Drift + b.Bounce + b.Fatigue
}

// Evaluate scores m against the hand s. Drift is measured on the posture after the move.
func Evaluate(s hand.State, m Move, h *History, c tuning.Constants) Breakdown {
	var from *grid.GridPos
	if pos, ok := s.Position(m.Finger); ok {
		from = &pos
	}
	return Breakdown{
		Movement: MovementCost(from, m.To, m.Finger, c),
		Stretch:  StretchPenalty(s, m.To, m.Finger, c),
		Drift:    DriftPenalty(s.With(m.Finger, m.To), m.Home, c),
		Bounce:   BouncePenalty(m.Pitch, model.Assignment{Hand: s.Hand, Finger: m.Finger}, m.Time, h, c),
		Fatigue:  FatigueCost(s, m.Finger, c),
	}
}
