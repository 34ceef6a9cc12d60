// Command resample_csv aggregates a bar CSV from one cadence to a larger one.
package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"sort"

	"simbroker/services/series"
)

func main() {
	in := flag.String("in", "", "Input CSV (timestamp,open,high,low,close[,volume])")
	out := flag.String("out", "", "Output CSV path")
	src := flag.String("src", "5m", "Source cadence (e.g., 5m)")
	dst := flag.String("dst", "15m", "Target cadence (e.g., 15m)")
	flag.Parse()

	if *in == "" || *out == "" {
		log.Fatal("-in and -out are required")
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer f.Close()

	bars, err := series.ReadBars(f)
	if err != nil {
		log.Fatalf("read bars: %v", err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].OpenTime < bars[j].OpenTime })

	resampled, err := series.Resample(bars, series.Timeframe(*src), series.Timeframe(*dst))
	if err != nil {
		log.Fatalf("resample: %v", err)
	}
	log.Printf("Aggregated %d %s bars into %d %s bars", len(bars), *src, len(resampled), *dst)

	of, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer of.Close()
	w := bufio.NewWriter(of)
	if err := series.WriteCSV(w, resampled); err != nil {
		log.Fatalf("write output: %v", err)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("flush output: %v", err)
	}
}
