package engine

import "github.com/shopspring/decimal"

type EventType int

const (
	EventOrderSubmit EventType = iota
	EventOrderFill
	EventTradeOpen
	EventTradeClose
	EventPartialClose
	EventEquityPoint
)

func (t EventType) String() string {
	switch t {
	case EventOrderSubmit:
		return "order_submit"
	case EventOrderFill:
		return "order_fill"
	case EventTradeOpen:
		return "trade_open"
	case EventTradeClose:
		return "trade_close"
	case EventPartialClose:
		return "partial_close"
	case EventEquityPoint:
		return "equity_point"
	default:
		return "unknown"
	}
}

// Event is one debug-trail entry. Recorded only when the broker runs with
// Debug enabled.
type Event struct {
	Bar   int
	Type  EventType
	Size  decimal.Decimal
	Price decimal.Decimal
	Tag   string
}

type EventLog struct {
	Events []Event
}

func (l *EventLog) Append(e Event) { l.Events = append(l.Events, e) }
