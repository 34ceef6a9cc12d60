// Command run_backtest replays a strategy over CSV bar data and reports the
// resulting ledger, metrics and replay script.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"simbroker/services/clickhouse"
	"simbroker/services/config"
	"simbroker/services/engine"
	"simbroker/services/series"
	"simbroker/strategies"
)

func main() {
	var (
		csvFile  = flag.String("csv", "", "Path to CSV file with OHLCV data")
		symbol   = flag.String("symbol", "BTCUSDT", "Symbol to simulate")
		capital  = flag.String("capital", "1000", "Initial capital")
		minQty   = flag.String("min-qty", "0.01", "Minimum quantity step")
		minTick  = flag.String("min-tick", "0.01", "Minimum price tick")
		fast     = flag.Int("fast", 26, "Fast SMA period")
		slow     = flag.Int("slow", 100, "Slow SMA period")
		signals  = flag.String("signals", "", "Comma-separated per-bar signals (long/short/close/hold); overrides the SMA cross")
		onClose  = flag.Bool("on-close", true, "Fill orders at the same bar's close instead of the next open")
		replay   = flag.String("replay", "", "Output path for the replay script")
		logFile  = flag.String("log-file", "", "Log file to mirror output into")
		debug    = flag.Bool("debug", false, "Record the per-bar event trail")
		sinkCH   = flag.Bool("ch", false, "Persist results to ClickHouse (connection from environment)")
	)
	flag.Parse()

	if *logFile != "" {
		if err := os.MkdirAll(filepath.Dir(*logFile), 0o755); err == nil {
			if f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				log.SetOutput(io.MultiWriter(os.Stdout, f))
			}
		}
	}

	if *csvFile == "" {
		fmt.Println("Error: -csv flag is required")
		flag.Usage()
		os.Exit(1)
	}

	sym := engine.SymInfo{
		Symbol:  *symbol,
		MinQty:  decimal.RequireFromString(*minQty),
		MinTick: decimal.RequireFromString(*minTick),
	}

	log.Printf("Loading data from %s...", *csvFile)
	src, err := series.LoadCSV(*csvFile, sym)
	if err != nil {
		log.Fatalf("Failed to load CSV: %v", err)
	}
	log.Printf("Loaded %d bars", src.Len())

	var zlog *zap.Logger
	if *debug {
		zlog, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer zlog.Sync()
	}

	broker, err := engine.New(src, engine.Config{
		InitialCapital:       decimal.RequireFromString(*capital),
		ProcessOrdersOnClose: *onClose,
		Debug:                *debug,
		Logger:               zlog,
	})
	if err != nil {
		log.Fatalf("Failed to create broker: %v", err)
	}

	start := time.Now()
	if *signals != "" {
		parsed := parseSignals(*signals)
		log.Printf("Running %d explicit signals...", len(parsed))
		if err := broker.SignalList(parsed); err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}
	} else {
		log.Printf("Running SMA cross %d/%d...", *fast, *slow)
		strat, err := strategies.NewSMACross(*fast, *slow)
		if err != nil {
			log.Fatalf("Invalid strategy parameters: %v", err)
		}
		if err := strat.Run(src, broker); err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}
	}
	log.Printf("Simulation finished in %s", time.Since(start))

	printSummary(broker)

	if *replay != "" {
		f, err := os.Create(*replay)
		if err != nil {
			log.Fatalf("Failed to create replay file: %v", err)
		}
		if err := broker.WriteReplayScript(f); err != nil {
			f.Close()
			log.Fatalf("Failed to write replay script: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to close replay file: %v", err)
		}
		fmt.Printf("Replay script written to %s\n", *replay)
	}

	if *sinkCH {
		if err := persistResults(broker, *symbol); err != nil {
			log.Fatalf("Failed to persist results: %v", err)
		}
	}
}

func parseSignals(s string) []engine.Signal {
	parts := strings.Split(s, ",")
	out := make([]engine.Signal, len(parts))
	for i, p := range parts {
		out[i] = engine.ParseSignal(strings.TrimSpace(p))
	}
	return out
}

func printSummary(b *engine.Broker) {
	closed := b.ClosedTrades()
	fmt.Printf("\nSimulation summary:\n")
	fmt.Printf("  Closed trades:  %d (%d winners, %d losers)\n", len(closed), b.WinningTrades(), b.LosingTrades())
	fmt.Printf("  Open trades:    %d (position %s)\n", len(b.OpenTrades()), b.PositionSize())
	fmt.Printf("  Net profit:     %s\n", b.NetProfit())
	fmt.Printf("  Open profit:    %s\n", b.OpenProfit())
	fmt.Printf("  Final equity:   %s\n", b.Equity())
	fmt.Printf("  Win rate:       %.2f%%\n", b.WinRate()*100)
	fmt.Printf("  Profit factor:  %.4f\n", b.ProfitFactor())
	fmt.Printf("  Average trade:  %s\n", b.AverageTrade())
	fmt.Printf("  Sharpe:         %.4f\n", b.SharpeRatio(0))
	fmt.Printf("  Sortino:        %.4f\n", b.SortinoRatio(0))

	if len(closed) > 0 {
		fmt.Println("\nSample trades:")
		fmt.Println("Entry bar | Exit bar | Size        | Entry    | Exit     | PnL")
		fmt.Println("----------|----------|-------------|----------|----------|--------")
		limit := 5
		if len(closed) < limit {
			limit = len(closed)
		}
		for i := 0; i < limit; i++ {
			t := closed[i]
			fmt.Printf("%-9d | %-8d | %-11s | %-8s | %-8s | %s\n",
				t.Entry.FillBar, t.Exit.FillBar, t.Size, t.Entry.Price, t.Exit.Price, t.PnL)
		}
		if len(closed) > limit {
			fmt.Printf("... and %d more trades\n", len(closed)-limit)
		}
	}
}

func persistResults(b *engine.Broker, symbol string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := clickhouse.NewClient(ctx, clickhouse.Config{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Table:    cfg.ClickHouse.Table,
		User:     cfg.ClickHouse.User,
		Password: cfg.ClickHouse.Password,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.EnsureResultSchema(ctx); err != nil {
		return err
	}
	jobID := uuid.New().String()
	if err := client.InsertResults(ctx, jobID, symbol, b.ClosedTrades(), b.EquitySeries(), b.NetEquitySeries()); err != nil {
		return err
	}
	fmt.Printf("Results persisted to ClickHouse under job %s\n", jobID)
	return nil
}
