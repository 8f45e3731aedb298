package cost

import "github.com/okian/padflow/internal/domain/model"

// Strike is one committed note in the bounce history.
type Strike struct {
	Pitch  int
	Hand   model.Hand
	Finger model.Finger
	Time   float64
}

// History is a bounded rolling buffer of recent strikes, newest last.
// It is owned by one solver and is not safe for concurrent use.
type History struct {
	size    int
	strikes []Strike
}

// NewHistory keeps at most size strikes.
func NewHistory(size int) *History {
	if size < 0 {
		size = 0
	}
	return &History{size: size, strikes: make([]Strike, 0, size)}
}

// Add appends s, evicting the oldest strike when full.
func (h *History) Add(s Strike) {
	if h.size == 0 {
		return
	}
	if len(h.strikes) == h.size {
		copy(h.strikes, h.strikes[1:])
		h.strikes = h.strikes[:len(h.strikes)-1]
	}
	h.strikes = append(h.strikes, s)
}

// Last returns the most recent strike of pitch.
func (h *History) Last(pitch int) (Strike, bool) {
	if h == nil {
		return Strike{}, false
	}
	for i := len(h.strikes) - 1; i >= 0; i-- {
		if h.strikes[i].Pitch == pitch {
			return h.strikes[i], true
		}
	}
	return Strike{}, false
}

// Len is the number of strikes held.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.strikes)
}

// Reset forgets every strike.
func (h *History) Reset() {
	h.strikes = h.strikes[:0]
}

// Clone returns an independent copy.
func (h *History) Clone() *History {
	out := &History{size: h.size, strikes: make([]Strike, len(h.strikes), h.size)}
	copy(out.strikes, h.strikes)
	return out
}
