package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTradeRejectsZeroSize(t *testing.T) {
	if _, err := NewTrade(dec("0.4"), dec("1")); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	if _, err := NewTrade(decimal.Decimal{}, dec("1")); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize for explicit zero, got %v", err)
	}
}

func TestTradeLifecycle(t *testing.T) {
	tr, err := NewTrade(dec("1000"), dec("0.01"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.IsClosed() {
		t.Fatal("fresh trade must not be closed")
	}
	if err := tr.MarkToMarket(dec("5")); !errors.Is(err, ErrMissingEntry) {
		t.Fatalf("mark before entry: expected ErrMissingEntry, got %v", err)
	}
	if err := tr.SetExit(TradeEvent{Price: dec("5")}); !errors.Is(err, ErrMissingEntry) {
		t.Fatalf("exit before entry: expected ErrMissingEntry, got %v", err)
	}

	if err := tr.SetEntry(TradeEvent{FillBar: 2, OrderBar: 2, Price: dec("3")}); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetEntry(TradeEvent{Price: dec("4")}); !errors.Is(err, ErrDoubleAssignment) {
		t.Fatalf("second entry: expected ErrDoubleAssignment, got %v", err)
	}

	if err := tr.MarkToMarket(dec("5")); err != nil {
		t.Fatal(err)
	}
	want := dec("2000").Div(dec("3"))
	if !tr.PnL.Equal(want) {
		t.Fatalf("pnl = %s, want %s", tr.PnL, want)
	}

	if err := tr.SetExit(TradeEvent{FillBar: 4, OrderBar: 4, Price: dec("5")}); err != nil {
		t.Fatal(err)
	}
	if !tr.IsClosed() {
		t.Fatal("trade with exit must be closed")
	}
	if err := tr.SetExit(TradeEvent{Price: dec("6")}); !errors.Is(err, ErrDoubleAssignment) {
		t.Fatalf("second exit: expected ErrDoubleAssignment, got %v", err)
	}
	// PnL stays frozen at the exit mark.
	if !tr.PnL.Equal(want) {
		t.Fatalf("pnl after close = %s, want %s", tr.PnL, want)
	}
}

func TestTradeShortPnL(t *testing.T) {
	tr, err := NewTrade(dec("-900"), dec("0.01"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SetEntry(TradeEvent{Price: dec("10")}); err != nil {
		t.Fatal(err)
	}
	if err := tr.MarkToMarket(dec("9")); err != nil {
		t.Fatal(err)
	}
	// Short gains when the mark drops: (9-10) * -900 / 10 = 90.
	if !tr.PnL.Equal(dec("90")) {
		t.Fatalf("short pnl = %s, want 90", tr.PnL)
	}
}

func TestResizeRefusesFlip(t *testing.T) {
	tr, err := NewTrade(dec("10"), dec("1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Resize(dec("-3")); !errors.Is(err, ErrDirectionFlip) {
		t.Fatalf("expected ErrDirectionFlip, got %v", err)
	}
	if err := tr.Resize(decimal.Decimal{}); !errors.Is(err, ErrDirectionFlip) {
		t.Fatalf("resize to zero: expected ErrDirectionFlip, got %v", err)
	}
	if err := tr.Resize(dec("6")); err != nil {
		t.Fatal(err)
	}
	if !tr.Size.Equal(dec("6")) {
		t.Fatalf("size = %s, want 6", tr.Size)
	}
}
