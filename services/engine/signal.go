package engine

import "github.com/shopspring/decimal"

// SizingKind enumerates the closed set of sizing-request kinds. The set is
// fixed; translation switches exhaustively over it.
type SizingKind int

const (
	// SizeTarget requests an absolute target position size.
	SizeTarget SizingKind = iota
	// SizeDelta requests an absolute signed change to the position.
	SizeDelta
	// PercentEquity requests a target of percent-of-current-equity.
	PercentEquity
	// CloseAll requests a flat position.
	CloseAll
)

// SizingRequest is one position-sizing request. Value is the target size for
// SizeTarget, the signed delta for SizeDelta, the signed percentage for
// PercentEquity, and ignored for CloseAll.
type SizingRequest struct {
	Kind  SizingKind
	Value decimal.Decimal
	Tag   string
}

// Signal is the coarse per-bar directive produced by strategies.
type Signal int

const (
	SignalHold Signal = iota
	SignalLong
	SignalShort
	SignalCloseAll
)

func (s Signal) String() string {
	switch s {
	case SignalLong:
		return "long"
	case SignalShort:
		return "short"
	case SignalCloseAll:
		return "close"
	default:
		return "hold"
	}
}

// ParseSignal maps the textual signal form used in signal maps and the
// service API back to a Signal. Unknown strings read as hold.
func ParseSignal(s string) Signal {
	switch s {
	case "long":
		return SignalLong
	case "short":
		return SignalShort
	case "close":
		return SignalCloseAll
	default:
		return SignalHold
	}
}
