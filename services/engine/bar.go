package engine

import "github.com/shopspring/decimal"

// Bar represents a single OHLCV bar
type Bar struct {
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	OpenTime  int64 // ms
	CloseTime int64 // ms
}

// SymInfo holds the static instrument parameters the broker quantizes against
type SymInfo struct {
	Symbol     string
	MinQty     decimal.Decimal
	MinTick    decimal.Decimal
	PriceScale int32
}

// SimContext is the capability interface the bar source exposes to the broker.
// The broker only ever reads Open and Close of the current bar.
type SimContext interface {
	CurrentBarIndex() int
	BarAt(i int) (Bar, bool)
	SymInfo() SymInfo
	Advance() bool
}
