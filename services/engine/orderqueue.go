package engine

import "github.com/shopspring/decimal"

// Order is a pending sizing request. The sign of Size encodes direction
// (positive = long delta, negative = short delta). A size of exactly zero is
// an explicit close-all request. Orders are never mutated after creation.
type Order struct {
	ID   uint64
	Size decimal.Decimal
	Tag  string
}

// OrderQueue is a FIFO collection of pending orders plus the single price the
// next matching pass fills against. Insertion order is priority.
type OrderQueue struct {
	sym     SymInfo
	price   decimal.Decimal
	pending []uint64
	orders  map[uint64]Order
	nextID  uint64
}

func NewOrderQueue(sym SymInfo) *OrderQueue {
	return &OrderQueue{
		sym:    sym,
		orders: make(map[uint64]Order),
		nextID: 1,
	}
}

// SetPrice sets the price used for any order matched after this call.
func (q *OrderQueue) SetPrice(p decimal.Decimal) { q.price = p }

// Price returns the current matching price.
func (q *OrderQueue) Price() decimal.Decimal { return q.price }

// Len returns the number of pending orders.
func (q *OrderQueue) Len() int { return len(q.pending) }

// Enqueue quantizes the order's size to the minimum quantity step and appends
// it to the tail. A non-zero size that rounds to zero is rejected with
// ErrQueueRejected; an explicit zero size is kept as a close-all request.
func (q *OrderQueue) Enqueue(o Order) (uint64, error) {
	if !o.Size.IsZero() {
		rounded := RoundQty(o.Size, q.sym.MinQty)
		if rounded.IsZero() {
			return 0, ErrQueueRejected
		}
		o.Size = rounded
	}
	o.ID = q.nextID
	q.nextID++
	q.orders[o.ID] = o
	q.pending = append(q.pending, o.ID)
	return o.ID, nil
}

// PopFront removes and returns the oldest pending order id, or false when the
// queue is drained. The order itself stays addressable through Get.
func (q *OrderQueue) PopFront() (uint64, bool) {
	if len(q.pending) == 0 {
		return 0, false
	}
	id := q.pending[0]
	q.pending = q.pending[1:]
	return id, true
}

// Get is a read-only lookup by order id.
func (q *OrderQueue) Get(id uint64) (Order, bool) {
	o, ok := q.orders[id]
	return o, ok
}
