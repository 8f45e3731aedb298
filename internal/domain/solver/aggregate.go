package solver

import (
	"math"
	"sort"

	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/model"
)

const maxScore = 100

// aggregate turns the trace and the final hand states into a result. notes is
// in the same order as trace.
func (s *Solver) aggregate(trace []model.DebugEvent, notes []note) model.EngineResult {
	res := model.EngineResult{
		DebugEvents: trace,
		FingerUsage: make(map[string]int, 2*model.FingerCount),
		FatigueMap:  make(map[string]float64, 2*model.FingerCount),
	}
	for _, h := range model.Hands {
		for _, f := range model.Fingers {
			key := model.FingerKey(h, f)
			res.FingerUsage[key] = 0
			res.FatigueMap[key] = s.hands[h].Finger(f).Fatigue
		}
	}

	var driftSum float64
	played := 0
	for i, ev := range trace {
		switch ev.Difficulty {
		case model.Hard:
			res.HardCount++
		case model.Impossible:
			res.UnplayableCount++
		}
		if !ev.Playable() {
			continue
		}
		played++
		res.FingerUsage[model.FingerKey(ev.Hand, ev.Finger)]++
		home := s.home(notes[i].section, ev.Hand)
		driftSum += grid.Distance(home.Point(), grid.GridPos{Row: ev.Row, Col: ev.Col}.Point())
	}
	if played > 0 {
		res.AverageDrift = driftSum / float64(played)
	}
	res.Score = s.score100(len(trace), played, res.HardCount, res.UnplayableCount)

	// present the trace in the caller's order
	sort.SliceStable(res.DebugEvents, func(a, b int) bool {
		return res.DebugEvents[a].Index < res.DebugEvents[b].Index
	})
	return res
}

// score100 is 100 minus the difficulty deductions, clamped to 0..100.
//
// Empty play: when there are events but none of them got a hand and finger,
// the score is 0 whatever the deductions add up to. A solve without sections
// is the common case.
func (s *Solver) score100(events, played, hard, unplayable int) float64 {
	if events > 0 && played == 0 {
		return 0
	}
	raw := maxScore - s.c.HardPenalty*float64(hard) - s.c.UnplayablePenalty*float64(unplayable)
	return math.Max(0, math.Min(maxScore, raw))
}
