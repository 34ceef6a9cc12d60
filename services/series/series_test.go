package series

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"simbroker/services/engine"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mkBars(step int64, closes ...string) []engine.Bar {
	bars := make([]engine.Bar, len(closes))
	for i, c := range closes {
		px := dec(c)
		bars[i] = engine.Bar{
			Open: px, High: px, Low: px, Close: px,
			OpenTime:  int64(i) * step,
			CloseTime: int64(i)*step + step - 1,
		}
	}
	return bars
}

func TestSeriesCursor(t *testing.T) {
	s, err := New(engine.SymInfo{Symbol: "X"}, mkBars(60000, "1", "2", "3"))
	if err != nil {
		t.Fatal(err)
	}
	if s.CurrentBarIndex() != 0 {
		t.Fatalf("cursor = %d, want 0", s.CurrentBarIndex())
	}
	if !s.Advance() || s.CurrentBarIndex() != 1 {
		t.Fatal("advance to bar 1 failed")
	}
	if !s.Advance() {
		t.Fatal("advance to bar 2 failed")
	}
	if s.Advance() {
		t.Fatal("advance past the end must return false")
	}
	s.Reset()
	if s.CurrentBarIndex() != 0 {
		t.Fatal("reset must rewind the cursor")
	}
	if _, ok := s.BarAt(99); ok {
		t.Fatal("out-of-range lookup must fail")
	}
}

func TestNewSortsByOpenTime(t *testing.T) {
	bars := mkBars(60000, "1", "2", "3")
	shuffled := []engine.Bar{bars[2], bars[0], bars[1]}
	s, err := New(engine.SymInfo{}, shuffled)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		b, _ := s.BarAt(i)
		if b.OpenTime != int64(i)*60000 {
			t.Fatalf("bar %d open time = %d", i, b.OpenTime)
		}
	}
}

func TestDetectGaps(t *testing.T) {
	bars := mkBars(60000, "1", "2", "3")
	bars[2].OpenTime = 5 * 60000
	gaps := DetectGaps(bars, 60000)
	if len(gaps) != 1 || gaps[0] != 60000 {
		t.Fatalf("gaps = %v, want [60000]", gaps)
	}
	if got := DetectGaps(mkBars(60000, "1", "2"), 60000); len(got) != 0 {
		t.Fatalf("continuous series reported gaps: %v", got)
	}
}

func TestReadBarsSkipsHeader(t *testing.T) {
	csvData := "timestamp_ms,open,high,low,close,volume\n" +
		"60000,1,2,0.5,1.5,10\n" +
		"120000,1.5,3,1,2.5,20\n"
	bars, err := ReadBars(strings.NewReader(csvData))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
	if !bars[0].Close.Equal(dec("1.5")) || !bars[1].High.Equal(dec("3")) {
		t.Fatalf("parsed values wrong: %+v", bars)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	in := mkBars(60000, "1.5", "2.25")
	var sb strings.Builder
	if err := WriteCSV(&sb, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadBars(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("round trip length %d != %d", len(out), len(in))
	}
	for i := range in {
		if !in[i].Close.Equal(out[i].Close) || in[i].OpenTime != out[i].OpenTime || in[i].CloseTime != out[i].CloseTime {
			t.Fatalf("bar %d mismatch: %+v vs %+v", i, in[i], out[i])
		}
	}
}
