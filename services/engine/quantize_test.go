package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRoundQtyTruncatesTowardZero(t *testing.T) {
	if got := RoundQty(dec("1.29"), dec("0.5")); !got.Equal(dec("1.0")) {
		t.Fatalf("RoundQty(1.29, 0.5) = %s", got)
	}
	if got := RoundQty(dec("-1.29"), dec("0.5")); !got.Equal(dec("-1.0")) {
		t.Fatalf("RoundQty(-1.29, 0.5) = %s", got)
	}
	if got := RoundQty(dec("0.4"), dec("1")); !got.IsZero() {
		t.Fatalf("RoundQty(0.4, 1) = %s, want 0", got)
	}
	if got := RoundQty(dec("7"), decimal.Decimal{}); !got.Equal(dec("7")) {
		t.Fatalf("zero step must leave size untouched, got %s", got)
	}
}

func TestRoundPriceNearestTick(t *testing.T) {
	if got := RoundPrice(dec("1.234"), dec("0.01")); !got.Equal(dec("1.23")) {
		t.Fatalf("RoundPrice(1.234, 0.01) = %s", got)
	}
	if got := RoundPrice(dec("1.235"), dec("0.01")); !got.Equal(dec("1.24")) {
		t.Fatalf("RoundPrice(1.235, 0.01) = %s", got)
	}
}

func TestPercentOfEquity(t *testing.T) {
	if got := PercentOfEquity(dec("1000"), dec("50")); !got.Equal(dec("500")) {
		t.Fatalf("PercentOfEquity(1000, 50) = %s", got)
	}
	if got := PercentOfEquity(dec("1000"), dec("-100")); !got.Equal(dec("-1000")) {
		t.Fatalf("PercentOfEquity(1000, -100) = %s", got)
	}
}
