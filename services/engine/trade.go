package engine

import "github.com/shopspring/decimal"

// TradeEvent records one side (entry or exit) of a trade. OrderBar is the bar
// at which the originating order was decided; it lags FillBar by one when
// execution is deferred to the next bar's open. Immutable once attached.
type TradeEvent struct {
	FillBar  int
	OrderBar int
	Price    decimal.Decimal
	ID       string
}

// Trade is a single position leg. Size is in capital units committed at
// entry: a size s opened at price p controls s/p units of the instrument, so
// pnl = (mark - entry) * size / entry. The same scale applies at entry and
// exit, which keeps rounding symmetric.
type Trade struct {
	Size  decimal.Decimal
	Entry *TradeEvent
	Exit  *TradeEvent
	PnL   decimal.Decimal
}

// NewTrade constructs a pending trade. The size is quantized to minQty first;
// a size that quantizes to zero is a construction error.
func NewTrade(size, minQty decimal.Decimal) (*Trade, error) {
	q := RoundQty(size, minQty)
	if q.IsZero() {
		return nil, ErrInvalidSize
	}
	return &Trade{Size: q}, nil
}

func (t *Trade) IsClosed() bool { return t.Exit != nil }
func (t *Trade) IsLong() bool   { return t.Size.Sign() > 0 }

// SetEntry attaches the entry event exactly once.
func (t *Trade) SetEntry(ev TradeEvent) error {
	if t.Entry != nil {
		return ErrDoubleAssignment
	}
	t.Entry = &ev
	return nil
}

// ProfitAt computes the profit of the still-open size at the given mark price
// without mutating the trade.
func (t *Trade) ProfitAt(mark decimal.Decimal) (decimal.Decimal, error) {
	if t.Entry == nil {
		return decimal.Decimal{}, ErrMissingEntry
	}
	return mark.Sub(t.Entry.Price).Mul(t.Size).Div(t.Entry.Price), nil
}

// MarkToMarket recomputes PnL from the given mark price.
func (t *Trade) MarkToMarket(mark decimal.Decimal) error {
	pnl, err := t.ProfitAt(mark)
	if err != nil {
		return err
	}
	t.PnL = pnl
	return nil
}

// SetExit attaches the exit event exactly once and freezes PnL at the value
// set by the preceding MarkToMarket call with the exit price as mark.
func (t *Trade) SetExit(ev TradeEvent) error {
	if t.Entry == nil {
		return ErrMissingEntry
	}
	if t.Exit != nil {
		return ErrDoubleAssignment
	}
	t.Exit = &ev
	return nil
}

// Resize shrinks an open trade in place during a partial close. A resize that
// would change direction or zero the trade is refused; flips go through
// close + new trade.
func (t *Trade) Resize(newSize decimal.Decimal) error {
	if newSize.IsZero() || newSize.Sign() != t.Size.Sign() {
		return ErrDirectionFlip
	}
	t.Size = newSize
	return nil
}

// splitClosed derives the closed slice of a partial close: same entry, size
// equal to the slice being closed.
func (t *Trade) splitClosed(slice decimal.Decimal) *Trade {
	return &Trade{Size: slice, Entry: t.Entry}
}
