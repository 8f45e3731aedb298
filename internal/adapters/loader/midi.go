package loader

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/okian/padflow/internal/domain/model"
)

const defaultMIDITempo = 120.0

type tempoChange struct {
	tick uint64
	bpm  float64
}

// decodeMIDI collects note-on events (velocity > 0) from every track. Times
// follow the file's tempo map; the performance tempo is the first tempo
// event, or 120 BPM when the file has none.
func decodeMIDI(r io.Reader) (model.Performance, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return model.Performance{}, fmt.Errorf("%w: midi: %w", ErrDecode, err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks == 0 {
		return model.Performance{}, fmt.Errorf("%w: midi: only metric time formats are supported", ErrDecode)
	}

	type onset struct {
		tick  uint64
		pitch int
	}
	var (
		tempos []tempoChange
		notes  []onset
		beats  int
	)
	for _, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			var (
				bpm          float64
				ch, key, vel uint8
				num, denom   uint8
			)
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				tempos = append(tempos, tempoChange{tick: abs, bpm: bpm})
			case ev.Message.GetMetaMeter(&num, &denom):
				if beats == 0 {
					beats = int(num)
				}
			case midi.Message(ev.Message).GetNoteStart(&ch, &key, &vel):
				notes = append(notes, onset{tick: abs, pitch: int(key)})
			}
		}
	}

	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].tick < tempos[j].tick })
	if len(tempos) == 0 || tempos[0].tick > 0 {
		tempos = append([]tempoChange{{bpm: defaultMIDITempo}}, tempos...)
	}

	p := model.Performance{
		Tempo:           tempos[0].bpm,
		BeatsPerMeasure: beats,
		Events:          make([]model.NoteEvent, 0, len(notes)),
	}
	tpq := float64(ticks)
	for _, n := range notes {
		p.Events = append(p.Events, model.NoteEvent{Pitch: n.pitch, StartTime: seconds(n.tick, tempos, tpq)})
	}
	sort.SliceStable(p.Events, func(i, j int) bool { return p.Events[i].StartTime < p.Events[j].StartTime })
	return p, nil
}

// seconds converts an absolute tick to seconds by walking the tempo map.
func seconds(tick uint64, tempos []tempoChange, ticksPerQuarter float64) float64 {
	var (
		total float64
		last  uint64
		bpm   = tempos[0].bpm
	)
	for _, tc := range tempos[1:] {
		if tc.tick >= tick {
			break
		}
		total += float64(tc.tick-last) / ticksPerQuarter * 60 / bpm
		last, bpm = tc.tick, tc.bpm
	}
	return total + float64(tick-last)/ticksPerQuarter*60/bpm
}
