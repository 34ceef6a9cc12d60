package engine

import "errors"

// Error taxonomy. All of these indicate caller-side logic errors; the broker
// never recovers from them locally.
var (
	// ErrInvalidSize is returned when a requested trade size quantizes to zero
	// at a point where a non-zero trade is required.
	ErrInvalidSize = errors.New("trade size quantizes to zero")

	// ErrDoubleAssignment is returned when an entry or exit event is set on a
	// trade that already has one.
	ErrDoubleAssignment = errors.New("trade event already assigned")

	// ErrMissingEntry is returned when pnl or exit is requested on a trade
	// that has no entry.
	ErrMissingEntry = errors.New("trade has no entry")

	// ErrQueueRejected is returned by Enqueue when a non-zero order size
	// rounds to zero under the instrument's minimum quantity step. An explicit
	// zero size is a valid close-all request and is not rejected.
	ErrQueueRejected = errors.New("order size rounds to zero")

	// ErrDirectionFlip is returned when a resize would change a trade's
	// direction. Flips must go through close + new trade.
	ErrDirectionFlip = errors.New("resize would flip trade direction")
)
