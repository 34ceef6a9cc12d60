package series

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"simbroker/services/engine"
)

// LoadCSV reads bars from a CSV file with columns
// timestamp_ms,open,high,low,close[,volume[,close_time_ms]]. A UTF-16 BOM is
// detected and decoded; a header row is skipped when present.
func LoadCSV(path string, sym engine.SymInfo) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load csv: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, fmt.Errorf("load csv %s: %w", path, err)
	}
	return New(sym, bars)
}

// ReadBars parses bars from CSV content.
func ReadBars(f io.ReadSeeker) ([]engine.Bar, error) {
	br := bufio.NewReader(f)
	// Detect UTF-16 BOM; if present, decode to UTF-8.
	if b, _ := br.Peek(2); len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
		tr := transform.NewReader(f, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		br = bufio.NewReader(tr)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var bars []engine.Bar
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		if len(rec) < 5 {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(rec[0], "timestamp") || strings.EqualFold(rec[0], "timestamp_ms") {
				continue
			}
		}
		tsStr := strings.TrimSpace(strings.TrimPrefix(rec[0], "\uFEFF"))
		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		bar := engine.Bar{OpenTime: ts, CloseTime: ts}
		if bar.Open, err = parseField(rec[1]); err != nil {
			return nil, err
		}
		if bar.High, err = parseField(rec[2]); err != nil {
			return nil, err
		}
		if bar.Low, err = parseField(rec[3]); err != nil {
			return nil, err
		}
		if bar.Close, err = parseField(rec[4]); err != nil {
			return nil, err
		}
		if len(rec) >= 6 {
			if bar.Volume, err = parseField(rec[5]); err != nil {
				return nil, err
			}
		}
		if len(rec) >= 7 {
			if ct, err := strconv.ParseInt(strings.TrimSpace(rec[6]), 10, 64); err == nil {
				bar.CloseTime = ct
			}
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars parsed")
	}
	return bars, nil
}

func parseField(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(strings.Trim(s, `"`)))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse field %q: %w", s, err)
	}
	return v, nil
}

// WriteCSV writes bars back out with a header, the inverse of ReadBars.
func WriteCSV(w io.Writer, bars []engine.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp_ms", "open", "high", "low", "close", "volume", "close_time_ms"}); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			strconv.FormatInt(b.OpenTime, 10),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume.String(),
			strconv.FormatInt(b.CloseTime, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
