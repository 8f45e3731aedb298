// Package solver assigns a hand and finger to every note of a performance.
//
// The pass is greedy: each event takes the cheapest feasible candidate, where
// a candidate's cost is its biomechanical cost plus a one-step lookahead on
// the same hand. Problems with the input become Unplayable trace entries; only
// malformed configuration is reported as an error.
package solver

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/okian/padflow/internal/domain/cost"
	"github.com/okian/padflow/internal/domain/feasibility"
	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/hand"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/tuning"
	"github.com/okian/padflow/pkg/logger"
)

// Solver owns the two hand states and the bounce history for one pass.
// It is not safe for concurrent use.
type Solver struct {
	sections []model.SectionMap
	c        tuning.Constants
	log      logger.Logger

	hands   [2]hand.State
	history *cost.History
}

// New validates the sections and constants and returns a ready solver.
func New(sections []model.SectionMap, opts ...Option) (*Solver, error) {
	s := &Solver{c: tuning.Default(), log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.c.Validate(); err != nil {
		return nil, err
	}
	s.sections = make([]model.SectionMap, len(sections))
	for i, sec := range sections {
		if err := sec.Validate(); err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		sec.PitchMapping, _ = sec.PitchMapping.Normalize()
		s.sections[i] = sec
	}
	s.history = cost.NewHistory(s.c.BounceHistorySize)
	s.Reset()
	return s, nil
}

// Reset puts both hands back in their neutral posture and clears the bounce history.
func (s *Solver) Reset() {
	for _, h := range model.Hands {
		s.hands[h] = hand.New(h, s.c.Home(h), s.c)
	}
	s.history.Reset()
}

// Constants returns the tuning the solver was built with.
func (s *Solver) Constants() tuning.Constants { return s.c }

// note is an input event with its position in the caller's list and its
// resolved pad.
type note struct {
	model.NoteEvent
	index   int
	section *model.SectionMap
	pos     grid.GridPos
	mapped  bool
}

type candidate struct {
	hand   model.Hand
	finger model.Finger
	cost   float64
}

// Solve runs one pass over perf. Overrides force the assignment at the given
// event indices; they are scored but never searched around.
func (s *Solver) Solve(ctx context.Context, perf model.Performance, overrides model.Overrides) (model.EngineResult, error) {
	if err := perf.Validate(); err != nil {
		return model.EngineResult{}, err
	}
	s.Reset()

	notes := s.resolve(perf)
	trace := make([]model.DebugEvent, 0, len(notes))
	var last float64
	started := false

	for i := range notes {
		n := &notes[i]
		ev := model.DebugEvent{
			Index:      n.index,
			Pitch:      n.Pitch,
			StartTime:  n.StartTime,
			Hand:       model.Unplayable,
			Finger:     model.NoFinger,
			Cost:       math.Inf(1),
			Difficulty: model.Impossible,
			Row:        n.pos.Row,
			Col:        n.pos.Col,
			Mapped:     n.mapped,
		}
		switch {
		case n.section == nil:
			ev.Reason = model.ReasonNoSection
		case !n.mapped:
			ev.Reason = model.ReasonUnmappedPitch
		}
		if ev.Reason != "" {
			s.log.Debug(ctx, "event unplayable",
				logger.Int("index", n.index), logger.Int("pitch", n.Pitch), logger.String("reason", ev.Reason))
			trace = append(trace, ev)
			continue
		}

		elapsed := 0.0
		if started {
			elapsed = n.StartTime - last
		}
		next := nextMapped(notes, i)

		var (
			win    candidate
			ok     bool
			forced bool
		)
		if o, has := overrides[n.index]; has && o.Hand.Valid() && o.Finger.Valid() {
			win = candidate{hand: o.Hand, finger: o.Finger, cost: s.score(o.Hand, o.Finger, n, next, elapsed)}
			ok, forced = true, true
		} else {
			win, ok = s.best(n, next, elapsed)
		}

		if ok {
			s.commit(win, n, elapsed)
			ev.Hand = win.hand
			ev.Finger = win.finger
			ev.Cost = win.cost
			ev.Difficulty = s.c.Difficulty(win.cost)
			ev.Overridden = forced
		} else {
			ev.Reason = model.ReasonNoCandidate
			s.log.Debug(ctx, "event unplayable",
				logger.Int("index", n.index), logger.Int("pitch", n.Pitch), logger.String("reason", ev.Reason))
		}
		trace = append(trace, ev)
		last, started = n.StartTime, true
	}

	res := s.aggregate(trace, notes)
	s.log.Debug(ctx, "solve finished",
		logger.Int("events", len(trace)),
		logger.Int("unplayable", res.UnplayableCount),
		logger.Int("hard", res.HardCount),
		logger.Float64("score", res.Score))
	return res, nil
}

// resolve sorts the events by start time, keeping input order for ties, and
// maps each one onto the grid of its section.
func (s *Solver) resolve(perf model.Performance) []note {
	notes := make([]note, len(perf.Events))
	for i, e := range perf.Events {
		notes[i] = note{NoteEvent: e, index: i}
	}
	slices.SortStableFunc(notes, func(a, b note) int {
		return cmp.Compare(a.StartTime, b.StartTime)
	})
	for i := range notes {
		n := &notes[i]
		n.section = s.sectionAt(perf.MeasureAt(n.StartTime))
		if n.section != nil {
			n.pos, n.mapped = grid.NoteToGrid(n.Pitch, n.section.PitchMapping)
		}
	}
	return notes
}

func (s *Solver) sectionAt(measure int) *model.SectionMap {
	for i := range s.sections {
		if s.sections[i].Contains(measure) {
			return &s.sections[i]
		}
	}
	return nil
}

// home is h's home pad while sec is active.
func (s *Solver) home(sec *model.SectionMap, h model.Hand) grid.GridPos {
	if sec != nil {
		if p, ok := sec.Home(h); ok {
			return p
		}
	}
	return s.c.Home(h)
}

// nextMapped returns the event after i when it can be looked ahead to.
func nextMapped(notes []note, i int) *note {
	if i+1 >= len(notes) || !notes[i+1].mapped {
		return nil
	}
	return &notes[i+1]
}

// handOrder prefers the hand on the pad's side of the grid.
func handOrder(col int) [2]model.Hand {
	if col < grid.Cols/2 {
		return [2]model.Hand{model.Left, model.Right}
	}
	return [2]model.Hand{model.Right, model.Left}
}

// best scores every feasible candidate and keeps the first cheapest one.
func (s *Solver) best(n *note, next *note, elapsed float64) (candidate, bool) {
	var (
		win   candidate
		found bool
	)
	for _, h := range handOrder(n.pos.Col) {
		st := s.hands[h]
		home := s.home(n.section, h)
		for _, f := range feasibility.FeasibleFingers(st, n.pos, home, s.c) {
			total := s.score(h, f, n, next, elapsed)
			if !found || total < win.cost {
				win = candidate{hand: h, finger: f, cost: total}
				found = true
			}
		}
	}
	return win, found
}

// score is the base cost of (h, f) taking n plus its lookahead cost.
func (s *Solver) score(h model.Hand, f model.Finger, n *note, next *note, elapsed float64) float64 {
	move := cost.Move{Finger: f, To: n.pos, Home: s.home(n.section, h), Pitch: n.Pitch, Time: n.StartTime}
	base := cost.Evaluate(s.hands[h], move, s.history, s.c).Total()
	return base + s.lookahead(h, f, n, next, elapsed)
}

// lookahead plays (h, f) on copies of the hand and history, then asks how
// cheaply the same hand could take the next note.
func (s *Solver) lookahead(h model.Hand, f model.Finger, n *note, next *note, elapsed float64) float64 {
	if next == nil {
		return 0
	}
	st := s.hands[h]
	st.Commit(f, n.pos, elapsed, s.c)
	hist := s.history.Clone()
	hist.Add(cost.Strike{Pitch: n.Pitch, Hand: h, Finger: f, Time: n.StartTime})

	home := s.home(next.section, h)
	fingers := feasibility.FeasibleFingers(st, next.pos, home, s.c)
	if len(fingers) == 0 {
		return s.c.LookaheadInfeasiblePenalty
	}
	cheapest := math.Inf(1)
	for _, g := range fingers {
		move := cost.Move{Finger: g, To: next.pos, Home: home, Pitch: next.Pitch, Time: next.StartTime}
		cheapest = math.Min(cheapest, cost.Evaluate(st, move, hist, s.c).Total())
	}
	if cheapest > s.c.LookaheadExpensiveThreshold {
		return s.c.LookaheadFraction * cheapest
	}
	return 0
}

func (s *Solver) commit(win candidate, n *note, elapsed float64) {
	s.hands[win.hand].Commit(win.finger, n.pos, elapsed, s.c)
	s.history.Add(cost.Strike{Pitch: n.Pitch, Hand: win.hand, Finger: win.finger, Time: n.StartTime})
}
