package strategies

import "github.com/shopspring/decimal"

// SMA returns the simple moving average of the trailing period, or zero when
// fewer than period values exist.
func SMA(values []decimal.Decimal, period int) decimal.Decimal {
	if period <= 0 || len(values) < period {
		return decimal.Decimal{}
	}
	sum := decimal.Decimal{}
	for _, v := range values[len(values)-period:] {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}

// EMA returns the exponential moving average over the full series, seeded
// with the SMA of the first period values.
func EMA(values []decimal.Decimal, period int) decimal.Decimal {
	if period <= 0 || len(values) < period {
		return decimal.Decimal{}
	}
	alpha := decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period) + 1))
	ema := SMA(values[:period], period)
	for _, v := range values[period:] {
		ema = v.Sub(ema).Mul(alpha).Add(ema)
	}
	return ema
}
