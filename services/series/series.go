// Package series is the bar-source collaborator: an ordered, in-memory bar
// store implementing the engine's simulation context.
package series

import (
	"fmt"
	"sort"

	"simbroker/services/engine"
)

// Series holds one instrument's bars in ascending open-time order and tracks
// the current simulation cursor.
type Series struct {
	sym  engine.SymInfo
	bars []engine.Bar
	idx  int
}

// New sorts the bars by open time and wraps them in a Series.
func New(sym engine.SymInfo, bars []engine.Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("series: no bars")
	}
	sorted := make([]engine.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OpenTime < sorted[j].OpenTime })
	return &Series{sym: sym, bars: sorted}, nil
}

func (s *Series) CurrentBarIndex() int { return s.idx }

func (s *Series) BarAt(i int) (engine.Bar, bool) {
	if i < 0 || i >= len(s.bars) {
		return engine.Bar{}, false
	}
	return s.bars[i], true
}

func (s *Series) SymInfo() engine.SymInfo { return s.sym }

// Advance moves the cursor to the next bar, returning false past the end.
func (s *Series) Advance() bool {
	if s.idx+1 >= len(s.bars) {
		return false
	}
	s.idx++
	return true
}

func (s *Series) Len() int { return len(s.bars) }

// Bars returns the underlying bar slice. Callers must not mutate it.
func (s *Series) Bars() []engine.Bar { return s.bars }

// Reset rewinds the cursor so the same data can drive a fresh replay.
func (s *Series) Reset() { s.idx = 0 }

// DetectGaps returns the open times after which an interval larger than
// expectedStepMs follows.
func DetectGaps(bars []engine.Bar, expectedStepMs int64) []int64 {
	var gaps []int64
	for i := 1; i < len(bars); i++ {
		if bars[i].OpenTime-bars[i-1].OpenTime > expectedStepMs {
			gaps = append(gaps, bars[i-1].OpenTime)
		}
	}
	return gaps
}
