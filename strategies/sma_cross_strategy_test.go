package strategies

import (
	"testing"

	"github.com/shopspring/decimal"

	"simbroker/services/engine"
	"simbroker/services/series"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func flatBars(closes ...string) []engine.Bar {
	bars := make([]engine.Bar, len(closes))
	for i, c := range closes {
		p := dec(c)
		bars[i] = engine.Bar{
			OpenTime:  int64(i) * 60_000,
			CloseTime: int64(i+1)*60_000 - 1,
			Open:      p, High: p, Low: p, Close: p,
			Volume: decimal.NewFromInt(1),
		}
	}
	return bars
}

func testSym() engine.SymInfo {
	return engine.SymInfo{Symbol: "BTCUSDT", MinQty: dec("0.01"), MinTick: dec("0.01")}
}

func TestSMA(t *testing.T) {
	vals := []decimal.Decimal{dec("1"), dec("2"), dec("3"), dec("4")}
	if got := SMA(vals, 2); !got.Equal(dec("3.5")) {
		t.Fatalf("SMA = %s, want 3.5", got)
	}
	if got := SMA(vals, 5); !got.IsZero() {
		t.Fatalf("SMA with short input = %s, want 0", got)
	}
}

func TestEMA(t *testing.T) {
	vals := []decimal.Decimal{dec("1"), dec("2"), dec("3"), dec("4")}
	// seed SMA(1,2,3) = 2, alpha = 0.5, then (4-2)*0.5 + 2 = 3
	if got := EMA(vals, 3); !got.Equal(dec("3")) {
		t.Fatalf("EMA = %s, want 3", got)
	}
}

func TestNewSMACrossValidation(t *testing.T) {
	if _, err := NewSMACross(3, 2); err == nil {
		t.Fatal("expected error for fast >= slow")
	}
	if _, err := NewSMACross(0, 3); err == nil {
		t.Fatal("expected error for non-positive fast")
	}
}

func TestSMACrossRun(t *testing.T) {
	src, err := series.New(testSym(), flatBars("1", "1", "1", "5", "6", "7", "3", "2", "1"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.New(src, engine.Config{
		InitialCapital:       dec("1000"),
		ProcessOrdersOnClose: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	strat, err := NewSMACross(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := strat.Run(src, b); err != nil {
		t.Fatal(err)
	}

	// Fast crosses above slow at bar 3 (close 5): long 1000 capital units.
	// Fast crosses below at bar 6 (close 3): the long closes at 3 for a loss
	// of (3-5)*1000/5 = -400 and a short of -600 opens on 600 marked equity.
	closed := b.ClosedTrades()
	if len(closed) != 1 {
		t.Fatalf("closed trades = %d, want 1", len(closed))
	}
	if !closed[0].PnL.Equal(dec("-400")) {
		t.Fatalf("closed pnl = %s, want -400", closed[0].PnL)
	}
	open := b.OpenTrades()
	if len(open) != 1 {
		t.Fatalf("open trades = %d, want 1", len(open))
	}
	if !open[0].Size.Equal(dec("-600")) {
		t.Fatalf("open size = %s, want -600", open[0].Size)
	}
	if !b.PositionSize().Equal(dec("-600")) {
		t.Fatalf("position = %s, want -600", b.PositionSize())
	}
	// Short gains (1-3)*(-600)/3 = +400 by the last close, back to flat 1000.
	if !b.Equity().Equal(dec("1000")) {
		t.Fatalf("equity = %s, want 1000", b.Equity())
	}
}
