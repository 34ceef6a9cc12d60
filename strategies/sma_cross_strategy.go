// Package strategies contains signal producers that drive the broker over a
// bar series.
package strategies

import (
	"fmt"

	"github.com/shopspring/decimal"

	"simbroker/services/engine"
	"simbroker/services/series"
)

// SMACross goes long when the fast SMA crosses above the slow SMA and short
// on the opposite cross. Positions are sized at full equity through the
// broker's signal surface.
type SMACross struct {
	Fast int
	Slow int
}

func NewSMACross(fast, slow int) (*SMACross, error) {
	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, fmt.Errorf("sma cross: need 0 < fast < slow, got %d/%d", fast, slow)
	}
	return &SMACross{Fast: fast, Slow: slow}, nil
}

// Run drives the broker bar by bar from the series' current cursor to its
// last bar. Signals fire between bar open and bar close, so fills land per
// the broker's execution timing config.
func (s *SMACross) Run(src *series.Series, b *engine.Broker) error {
	closes := make([]decimal.Decimal, 0, src.Len())
	prev := 0
	for {
		if err := b.OnBarOpen(); err != nil {
			return fmt.Errorf("sma cross: %w", err)
		}
		idx := src.CurrentBarIndex()
		bar, ok := src.BarAt(idx)
		if !ok {
			return fmt.Errorf("sma cross: no bar at index %d", idx)
		}
		closes = append(closes, bar.Close)

		if len(closes) >= s.Slow {
			diff := SMA(closes, s.Fast).Cmp(SMA(closes, s.Slow))
			switch {
			case prev <= 0 && diff > 0:
				if err := b.Signal(engine.SignalLong); err != nil {
					return fmt.Errorf("sma cross: %w", err)
				}
			case prev >= 0 && diff < 0:
				if err := b.Signal(engine.SignalShort); err != nil {
					return fmt.Errorf("sma cross: %w", err)
				}
			}
			prev = diff
		}

		if err := b.OnBarClose(); err != nil {
			return fmt.Errorf("sma cross: %w", err)
		}
		if !src.Advance() {
			return nil
		}
	}
}
