package series

import (
	"fmt"
	"strconv"
	"strings"

	"simbroker/services/engine"
)

// Timeframe is a bar cadence label.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// Minutes parses the timeframe into minutes. Plain numbers read as minutes.
func (tf Timeframe) Minutes() (int64, error) {
	s := strings.ToLower(strings.TrimSpace(string(tf)))
	switch {
	case strings.HasSuffix(s, "min"):
		s = strings.TrimSuffix(s, "min")
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "h"):
		n, err := strconv.ParseInt(strings.TrimSuffix(s, "h"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse timeframe %q: %w", tf, err)
		}
		return n * 60, nil
	case strings.HasSuffix(s, "d"):
		n, err := strconv.ParseInt(strings.TrimSuffix(s, "d"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse timeframe %q: %w", tf, err)
		}
		return n * 1440, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timeframe %q: %w", tf, err)
	}
	return n, nil
}

// Resample aggregates bars into target-cadence buckets aligned to the epoch,
// with right-edge alignment: the trailing bucket is dropped unless the source
// data covers it completely, so only finished target bars are visible.
func Resample(bars []engine.Bar, src, dst Timeframe) ([]engine.Bar, error) {
	srcMin, err := src.Minutes()
	if err != nil {
		return nil, err
	}
	dstMin, err := dst.Minutes()
	if err != nil {
		return nil, err
	}
	if dstMin%srcMin != 0 {
		return nil, fmt.Errorf("resample: %s is not a multiple of %s", dst, src)
	}
	srcMs := srcMin * 60 * 1000
	dstMs := dstMin * 60 * 1000

	var out []engine.Bar
	var cur *engine.Bar
	var curBucket int64
	var covered int64

	flush := func() {
		if cur != nil && covered*srcMs >= dstMs {
			out = append(out, *cur)
		}
		cur = nil
		covered = 0
	}

	for i := range bars {
		b := bars[i]
		bucket := (b.OpenTime / dstMs) * dstMs
		if cur == nil || bucket != curBucket {
			flush()
			nb := b
			nb.OpenTime = bucket
			cur = &nb
			curBucket = bucket
			covered = 1
			continue
		}
		if b.High.GreaterThan(cur.High) {
			cur.High = b.High
		}
		if b.Low.LessThan(cur.Low) {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.CloseTime = b.CloseTime
		cur.Volume = cur.Volume.Add(b.Volume)
		covered++
	}
	flush()
	return out, nil
}
