package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func testSym() SymInfo {
	return SymInfo{Symbol: "BTCUSDT", MinQty: dec("0.01"), MinTick: dec("0.01"), PriceScale: 2}
}

func TestQueueFIFO(t *testing.T) {
	q := NewOrderQueue(testSym())
	a, err := q.Enqueue(Order{Size: dec("1"), Tag: "a"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := q.Enqueue(Order{Size: dec("-2"), Tag: "b"})
	if err != nil {
		t.Fatal(err)
	}

	id, ok := q.PopFront()
	if !ok || id != a {
		t.Fatalf("expected %d first, got %d (ok=%v)", a, id, ok)
	}
	id, ok = q.PopFront()
	if !ok || id != b {
		t.Fatalf("expected %d second, got %d (ok=%v)", b, id, ok)
	}
	if _, ok := q.PopFront(); ok {
		t.Fatal("expected drained queue")
	}
	// Popped orders stay addressable.
	if o, ok := q.Get(a); !ok || o.Tag != "a" {
		t.Fatalf("lookup of popped order failed: %+v ok=%v", o, ok)
	}
}

func TestQueueRejectsSizeRoundingToZero(t *testing.T) {
	q := NewOrderQueue(SymInfo{MinQty: dec("1"), MinTick: dec("0.01")})
	if _, err := q.Enqueue(Order{Size: dec("0.4")}); !errors.Is(err, ErrQueueRejected) {
		t.Fatalf("expected ErrQueueRejected, got %v", err)
	}
	if q.Len() != 0 {
		t.Fatalf("rejected order must not be queued, len=%d", q.Len())
	}
}

func TestQueueAcceptsExplicitZero(t *testing.T) {
	q := NewOrderQueue(SymInfo{MinQty: dec("1"), MinTick: dec("0.01")})
	id, err := q.Enqueue(Order{Size: decimal.Decimal{}, Tag: "close"})
	if err != nil {
		t.Fatalf("explicit zero must be a valid close-all request: %v", err)
	}
	o, ok := q.Get(id)
	if !ok || !o.Size.IsZero() {
		t.Fatalf("expected zero-size order, got %+v", o)
	}
}

func TestQueueQuantizesOnEnqueue(t *testing.T) {
	q := NewOrderQueue(SymInfo{MinQty: dec("0.5"), MinTick: dec("0.01")})
	id, err := q.Enqueue(Order{Size: dec("1.74")})
	if err != nil {
		t.Fatal(err)
	}
	o, _ := q.Get(id)
	if !o.Size.Equal(dec("1.5")) {
		t.Fatalf("expected quantized size 1.5, got %s", o.Size)
	}
}
