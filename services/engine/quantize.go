package engine

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RoundQty rounds a requested size down (toward zero) to the instrument's
// minimum tradable quantity. A zero or negative step leaves the size untouched.
func RoundQty(size, minQty decimal.Decimal) decimal.Decimal {
	if minQty.Sign() <= 0 {
		return size
	}
	return size.Div(minQty).Truncate(0).Mul(minQty)
}

// RoundPrice rounds a price to the nearest tick, half away from zero.
func RoundPrice(price, minTick decimal.Decimal) decimal.Decimal {
	if minTick.Sign() <= 0 {
		return price
	}
	return price.Div(minTick).Round(0).Mul(minTick)
}

// PercentOfEquity converts an equity-percentage sizing request into an
// absolute size. percent is expressed in percent (100 = full equity) and may
// carry a sign for direction.
func PercentOfEquity(equity, percent decimal.Decimal) decimal.Decimal {
	return equity.Mul(percent).Div(hundred)
}
