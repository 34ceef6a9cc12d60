package engine

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWinRate(t *testing.T) {
	if got := WinRate(3, 1); got != 0.75 {
		t.Fatalf("WinRate(3,1) = %v", got)
	}
	if got := WinRate(0, 0); got != 0 {
		t.Fatalf("WinRate(0,0) = %v, want 0", got)
	}
}

func TestProfitFactor(t *testing.T) {
	if got := ProfitFactor(dec("300"), dec("100")); got != 3 {
		t.Fatalf("ProfitFactor(300,100) = %v", got)
	}
	if got := ProfitFactor(dec("300"), decimal.Decimal{}); !math.IsInf(got, 1) {
		t.Fatalf("zero-loss profit factor = %v, want +Inf", got)
	}
	if got := ProfitFactor(decimal.Decimal{}, decimal.Decimal{}); got != 0 {
		t.Fatalf("no-trade profit factor = %v, want 0", got)
	}
}

func TestAverageTrade(t *testing.T) {
	if got := AverageTrade(dec("90"), 3); !got.Equal(dec("30")) {
		t.Fatalf("AverageTrade(90,3) = %s", got)
	}
	if got := AverageTrade(dec("90"), 0); !got.IsZero() {
		t.Fatalf("AverageTrade with no trades = %s, want 0", got)
	}
}

func TestReturns(t *testing.T) {
	rets := Returns([]decimal.Decimal{dec("100"), dec("110"), dec("99")})
	if len(rets) != 2 {
		t.Fatalf("len = %d, want 2", len(rets))
	}
	if math.Abs(rets[0]-0.1) > 1e-12 {
		t.Fatalf("rets[0] = %v, want 0.1", rets[0])
	}
	if math.Abs(rets[1]-(-0.1)) > 1e-12 {
		t.Fatalf("rets[1] = %v, want -0.1", rets[1])
	}
}

func TestSharpeZeroVariance(t *testing.T) {
	if got := SharpeRatio([]float64{0.01, 0.01, 0.01}, 0); got != 0 {
		t.Fatalf("constant returns sharpe = %v, want 0", got)
	}
	if got := SharpeRatio(nil, 0); got != 0 {
		t.Fatalf("empty sharpe = %v, want 0", got)
	}
}

func TestSharpePositiveDrift(t *testing.T) {
	got := SharpeRatio([]float64{0.02, -0.01, 0.03, 0.0}, 0)
	if got <= 0 {
		t.Fatalf("positive-drift sharpe = %v, want > 0", got)
	}
}

func TestSortinoUsesDownsideOnly(t *testing.T) {
	// All returns above the risk-free rate: no downside deviation.
	if got := SortinoRatio([]float64{0.01, 0.02}, 0); got != 0 {
		t.Fatalf("no-downside sortino = %v, want 0", got)
	}
	got := SortinoRatio([]float64{0.02, -0.01, 0.03, -0.02}, 0)
	sharpe := SharpeRatio([]float64{0.02, -0.01, 0.03, -0.02}, 0)
	if got <= 0 {
		t.Fatalf("sortino = %v, want > 0", got)
	}
	if got <= sharpe {
		t.Fatalf("sortino %v should exceed sharpe %v when upside dominates variance", got, sharpe)
	}
}
