package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// Pure summary statistics over the broker's running totals and ledger. None
// of these participate in the matching invariants.

// WinRate is winners / (winners + losers), 0 when no trades closed.
func WinRate(winners, losers int) float64 {
	total := winners + losers
	if total == 0 {
		return 0
	}
	return float64(winners) / float64(total)
}

// ProfitFactor is gross profit / gross loss. Zero loss with non-zero profit
// reports +Inf rather than dividing by zero; no trades at all reports 0.
func ProfitFactor(grossProfit, grossLoss decimal.Decimal) float64 {
	if grossLoss.IsZero() {
		if grossProfit.IsZero() {
			return 0
		}
		return math.Inf(1)
	}
	return grossProfit.Div(grossLoss).InexactFloat64()
}

// AverageTrade is net profit / closed trade count, zero when none closed.
func AverageTrade(netProfit decimal.Decimal, closed int) decimal.Decimal {
	if closed == 0 {
		return decimal.Decimal{}
	}
	return netProfit.Div(decimal.NewFromInt(int64(closed)))
}

// Returns derives the per-bar percentage return series from an equity curve:
// returns[i-1] = equity[i]/equity[i-1] - 1. Bars with non-positive prior
// equity yield a zero return.
func Returns(equity []decimal.Decimal) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1]
		if prev.Sign() <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, equity[i].Div(prev).InexactFloat64()-1)
	}
	return out
}

// SharpeRatio is mean excess return over the standard deviation of returns,
// with riskFree expressed per bar. Zero when the deviation vanishes.
func SharpeRatio(returns []float64, riskFree float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := meanOf(returns)
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return (mean - riskFree) / std
}

// SortinoRatio is mean excess return over downside deviation: only returns
// below the risk-free rate contribute to the denominator's variance.
func SortinoRatio(returns []float64, riskFree float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := meanOf(returns)
	downside := 0.0
	for _, r := range returns {
		if r < riskFree {
			d := r - riskFree
			downside += d * d
		}
	}
	downside = math.Sqrt(downside / float64(len(returns)))
	if downside == 0 {
		return 0
	}
	return (mean - riskFree) / downside
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Broker-level conveniences over the pure functions.

func (b *Broker) WinRate() float64 {
	return WinRate(b.winningTrades, b.losingTrades)
}

func (b *Broker) ProfitFactor() float64 {
	return ProfitFactor(b.grossProfit, b.grossLoss)
}

func (b *Broker) AverageTrade() decimal.Decimal {
	return AverageTrade(b.netProfit, len(b.closedTrades))
}

func (b *Broker) SharpeRatio(riskFree float64) float64 {
	return SharpeRatio(Returns(b.equity), riskFree)
}

func (b *Broker) SortinoRatio(riskFree float64) float64 {
	return SortinoRatio(Returns(b.equity), riskFree)
}
