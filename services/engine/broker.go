package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config configures one Broker instance. The broker reads no environment; all
// configuration is in-process.
type Config struct {
	InitialCapital decimal.Decimal
	// ProcessOrdersOnClose runs the matching pass at bar close against the
	// close price. When false, queued orders wait for the next bar's open.
	ProcessOrdersOnClose bool
	Debug                bool
	// Logger is used for debug-level match tracing. Defaults to a nop logger.
	Logger *zap.Logger
}

// Broker is the execution engine: it owns the order queue, the open-trade
// list, the closed-trade ledger and the running equity aggregates. It is
// single-threaded; a host sharing one instance across goroutines must
// serialize access itself.
type Broker struct {
	ctx   SimContext
	cfg   Config
	sym   SymInfo
	queue *OrderQueue
	log   *zap.Logger

	// openTrades is insertion-ordered; that order is the netting priority.
	openTrades   []*Trade
	closedTrades []*Trade
	positionSize decimal.Decimal

	equity     []decimal.Decimal
	netEquity  []decimal.Decimal
	openProfit decimal.Decimal
	netProfit  decimal.Decimal

	grossProfit   decimal.Decimal
	grossLoss     decimal.Decimal
	winningTrades int
	losingTrades  int

	prevTarget    decimal.Decimal
	hasPrevTarget bool

	events EventLog
}

// New constructs a broker bound to a simulation context.
func New(ctx SimContext, cfg Config) (*Broker, error) {
	if ctx == nil {
		return nil, fmt.Errorf("new broker: nil context")
	}
	if cfg.InitialCapital.Sign() <= 0 {
		return nil, fmt.Errorf("new broker: initial capital must be positive, got %s", cfg.InitialCapital)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	sym := ctx.SymInfo()
	return &Broker{
		ctx:   ctx,
		cfg:   cfg,
		sym:   sym,
		queue: NewOrderQueue(sym),
		log:   cfg.Logger,
	}, nil
}

// OnBarOpen starts a simulated bar: it appends the bar's equity slots, marks
// the queue price from the bar open, and runs the matching pass when
// execution happens at bar open. Must alternate strictly with OnBarClose.
func (b *Broker) OnBarOpen() error {
	idx := b.ctx.CurrentBarIndex()
	bar, ok := b.ctx.BarAt(idx)
	if !ok {
		return fmt.Errorf("bar open: no bar at index %d", idx)
	}
	// Placeholder slots, filled at bar close.
	b.equity = append(b.equity, decimal.Decimal{})
	b.netEquity = append(b.netEquity, decimal.Decimal{})

	b.queue.SetPrice(RoundPrice(bar.Open, b.sym.MinTick))
	if !b.cfg.ProcessOrdersOnClose {
		// Orders enqueued on the previous bar fill at this bar's open.
		if err := b.processOrders(idx, 1); err != nil {
			return err
		}
	}
	return nil
}

// OnBarClose finishes the bar: it re-marks the queue price from the bar
// close, runs the matching pass when execution happens at close, then
// recomputes open profit and fills the bar's equity slots.
func (b *Broker) OnBarClose() error {
	idx := b.ctx.CurrentBarIndex()
	bar, ok := b.ctx.BarAt(idx)
	if !ok {
		return fmt.Errorf("bar close: no bar at index %d", idx)
	}
	b.queue.SetPrice(RoundPrice(bar.Close, b.sym.MinTick))
	if b.cfg.ProcessOrdersOnClose {
		if err := b.processOrders(idx, 0); err != nil {
			return err
		}
	}

	mark := b.queue.Price()
	open := decimal.Decimal{}
	for _, t := range b.openTrades {
		if err := t.MarkToMarket(mark); err != nil {
			return fmt.Errorf("bar close: mark open trade: %w", err)
		}
		open = open.Add(t.PnL)
	}
	b.openProfit = open

	net := b.cfg.InitialCapital.Add(b.netProfit)
	b.netEquity[len(b.netEquity)-1] = net
	b.equity[len(b.equity)-1] = net.Add(open)

	if b.cfg.Debug {
		b.events.Append(Event{Bar: idx, Type: EventEquityPoint, Price: mark, Size: net.Add(open)})
		b.log.Debug("bar closed",
			zap.Int("bar", idx),
			zap.String("equity", net.Add(open).String()),
			zap.String("position", b.positionSize.String()),
		)
	}
	return nil
}

// processOrders drains the queue in FIFO order, netting each popped order
// against existing opposing exposure before opening residual size. lag is the
// number of bars between order decision and fill (1 at next-bar-open, 0 at
// same-bar-close).
func (b *Broker) processOrders(idx, lag int) error {
	price := b.queue.Price()
	for {
		id, ok := b.queue.PopFront()
		if !ok {
			break
		}
		ord, ok := b.queue.Get(id)
		if !ok {
			return fmt.Errorf("process orders: popped unknown order %d", id)
		}
		fill := ord.Size
		if fill.IsZero() {
			// Explicit zero size closes everything.
			fill = b.positionSize.Neg()
		}
		if b.cfg.Debug {
			b.events.Append(Event{Bar: idx, Type: EventOrderFill, Size: fill, Price: price, Tag: ord.Tag})
		}

		// Walk the open trades oldest-first; indices shift on removal, so
		// re-check bounds instead of ranging.
		for i := 0; i < len(b.openTrades) && !fill.IsZero(); {
			ot := b.openTrades[i]
			if ot.Size.Sign() == fill.Sign() {
				i++
				continue
			}
			if ot.Size.Abs().LessThanOrEqual(fill.Abs()) {
				// Opposing exposure fully consumed: close the whole trade.
				b.openTrades = append(b.openTrades[:i], b.openTrades[i+1:]...)
				fill = fill.Add(ot.Size)
				if err := b.closeTrade(ot, price, idx, lag, ord.Tag, false); err != nil {
					return err
				}
				continue
			}
			// Open trade larger than the remaining fill: shrink it in place
			// and realize only the closed slice.
			slice := fill.Neg()
			if err := ot.Resize(ot.Size.Add(fill)); err != nil {
				return fmt.Errorf("process orders: partial close: %w", err)
			}
			if err := b.closeTrade(ot.splitClosed(slice), price, idx, lag, ord.Tag, true); err != nil {
				return err
			}
			fill = decimal.Decimal{}
		}

		// Residual signed size opens a new trade unless it rounds away.
		if !fill.IsZero() && !RoundQty(fill, b.sym.MinQty).IsZero() {
			t, err := NewTrade(fill, b.sym.MinQty)
			if err != nil {
				return fmt.Errorf("process orders: open residual: %w", err)
			}
			if err := t.SetEntry(TradeEvent{FillBar: idx, OrderBar: idx - lag, Price: price, ID: ord.Tag}); err != nil {
				return fmt.Errorf("process orders: open residual: %w", err)
			}
			b.openTrades = append(b.openTrades, t)
			if b.cfg.Debug {
				b.events.Append(Event{Bar: idx, Type: EventTradeOpen, Size: t.Size, Price: price, Tag: ord.Tag})
			}
		}

		b.positionSize = b.sumOpenSizes()
	}
	return nil
}

// closeTrade realizes a full or partial close at the given price and updates
// the running aggregates.
func (b *Broker) closeTrade(t *Trade, price decimal.Decimal, idx, lag int, tag string, partial bool) error {
	if err := t.MarkToMarket(price); err != nil {
		return fmt.Errorf("close trade: %w", err)
	}
	if err := t.SetExit(TradeEvent{FillBar: idx, OrderBar: idx - lag, Price: price, ID: tag}); err != nil {
		return fmt.Errorf("close trade: %w", err)
	}
	b.closedTrades = append(b.closedTrades, t)
	b.netProfit = b.netProfit.Add(t.PnL)
	if t.PnL.Sign() > 0 {
		b.winningTrades++
		b.grossProfit = b.grossProfit.Add(t.PnL)
	} else {
		b.losingTrades++
		b.grossLoss = b.grossLoss.Sub(t.PnL)
	}
	if b.cfg.Debug {
		typ := EventTradeClose
		if partial {
			typ = EventPartialClose
		}
		b.events.Append(Event{Bar: idx, Type: typ, Size: t.Size, Price: price, Tag: tag})
	}
	return nil
}

func (b *Broker) sumOpenSizes() decimal.Decimal {
	sum := decimal.Decimal{}
	for _, t := range b.openTrades {
		sum = sum.Add(t.Size)
	}
	return sum
}

// markedEquity is initial capital plus realized profit plus the open profit
// of all open trades at the current queue price.
func (b *Broker) markedEquity() (decimal.Decimal, error) {
	eq := b.cfg.InitialCapital.Add(b.netProfit)
	for _, t := range b.openTrades {
		pnl, err := t.ProfitAt(b.queue.Price())
		if err != nil {
			return decimal.Decimal{}, err
		}
		eq = eq.Add(pnl)
	}
	return eq, nil
}

// OrderConfig describes a raw delta order submitted directly by a caller.
type OrderConfig struct {
	Size decimal.Decimal
	Tag  string
}

// Order enqueues a raw signed delta order.
func (b *Broker) Order(cfg OrderConfig) error {
	return b.Submit(SizingRequest{Kind: SizeDelta, Value: cfg.Size, Tag: cfg.Tag})
}

// Submit translates a sizing request into at most one order and enqueues it.
// Target-based requests numerically equal to the previously accepted target
// are suppressed. A delta of zero (including close-all while flat) produces
// no order.
func (b *Broker) Submit(req SizingRequest) error {
	var delta decimal.Decimal
	switch req.Kind {
	case SizeDelta:
		delta = req.Value
	case SizeTarget, PercentEquity, CloseAll:
		var target decimal.Decimal
		switch req.Kind {
		case SizeTarget:
			target = req.Value
		case PercentEquity:
			eq, err := b.markedEquity()
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			target = RoundQty(PercentOfEquity(eq, req.Value), b.sym.MinQty)
		case CloseAll:
			// target stays zero
		}
		if b.hasPrevTarget && b.prevTarget.Equal(target) {
			return nil
		}
		b.prevTarget = target
		b.hasPrevTarget = true
		delta = target.Sub(b.positionSize)
	default:
		return fmt.Errorf("submit: unknown sizing kind %d", req.Kind)
	}

	if delta.IsZero() {
		return nil
	}
	id, err := b.queue.Enqueue(Order{Size: delta, Tag: req.Tag})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if b.cfg.Debug {
		b.events.Append(Event{Bar: b.ctx.CurrentBarIndex(), Type: EventOrderSubmit, Size: delta, Tag: req.Tag})
		b.log.Debug("order enqueued",
			zap.Uint64("order_id", id),
			zap.String("size", delta.String()),
			zap.String("tag", req.Tag),
		)
	}
	return nil
}

// Signal translates a coarse directive into a sizing request: long and short
// target the full current equity in the respective direction.
func (b *Broker) Signal(s Signal) error {
	switch s {
	case SignalLong:
		return b.Submit(SizingRequest{Kind: PercentEquity, Value: hundred, Tag: s.String()})
	case SignalShort:
		return b.Submit(SizingRequest{Kind: PercentEquity, Value: hundred.Neg(), Tag: s.String()})
	case SignalCloseAll:
		return b.Submit(SizingRequest{Kind: CloseAll, Tag: s.String()})
	default:
		return nil
	}
}

// SignalList drives the whole simulation from the context's current bar to
// its last, applying signals[i] on bar i when present.
func (b *Broker) SignalList(signals []Signal) error {
	for {
		if err := b.OnBarOpen(); err != nil {
			return err
		}
		idx := b.ctx.CurrentBarIndex()
		if idx < len(signals) {
			if err := b.Signal(signals[idx]); err != nil {
				return err
			}
		}
		if err := b.OnBarClose(); err != nil {
			return err
		}
		if !b.ctx.Advance() {
			return nil
		}
	}
}

// SignalMap drives the whole simulation with signals keyed by bar open time
// in milliseconds.
func (b *Broker) SignalMap(signals map[int64]Signal) error {
	for {
		if err := b.OnBarOpen(); err != nil {
			return err
		}
		idx := b.ctx.CurrentBarIndex()
		if bar, ok := b.ctx.BarAt(idx); ok {
			if s, found := signals[bar.OpenTime]; found {
				if err := b.Signal(s); err != nil {
					return err
				}
			}
		}
		if err := b.OnBarClose(); err != nil {
			return err
		}
		if !b.ctx.Advance() {
			return nil
		}
	}
}

// Read accessors.

func (b *Broker) InitialCapital() decimal.Decimal { return b.cfg.InitialCapital }
func (b *Broker) PositionSize() decimal.Decimal   { return b.positionSize }
func (b *Broker) NetProfit() decimal.Decimal      { return b.netProfit }
func (b *Broker) OpenProfit() decimal.Decimal     { return b.openProfit }
func (b *Broker) GrossProfit() decimal.Decimal    { return b.grossProfit }
func (b *Broker) GrossLoss() decimal.Decimal      { return b.grossLoss }
func (b *Broker) WinningTrades() int              { return b.winningTrades }
func (b *Broker) LosingTrades() int               { return b.losingTrades }

// Equity is initial capital + realized profit + open profit as of the last
// completed bar.
func (b *Broker) Equity() decimal.Decimal {
	return b.cfg.InitialCapital.Add(b.netProfit).Add(b.openProfit)
}

// NetEquity is initial capital + realized profit only.
func (b *Broker) NetEquity() decimal.Decimal {
	return b.cfg.InitialCapital.Add(b.netProfit)
}

// EquitySeries returns the full per-bar equity curve. The slice is live; the
// caller must not mutate it.
func (b *Broker) EquitySeries() []decimal.Decimal { return b.equity }

// NetEquitySeries returns the full per-bar net equity curve.
func (b *Broker) NetEquitySeries() []decimal.Decimal { return b.netEquity }

func (b *Broker) OpenTrades() []*Trade   { return b.openTrades }
func (b *Broker) ClosedTrades() []*Trade { return b.closedTrades }

// LongPositions counts open trades per direction.
func (b *Broker) LongPositions() int {
	n := 0
	for _, t := range b.openTrades {
		if t.IsLong() {
			n++
		}
	}
	return n
}

func (b *Broker) ShortPositions() int {
	return len(b.openTrades) - b.LongPositions()
}

// Events returns the debug trail recorded so far. Empty unless Debug is set.
func (b *Broker) Events() []Event { return b.events.Events }
