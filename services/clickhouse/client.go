// Package clickhouse loads historical bars from ClickHouse and persists
// simulation results for audit.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/shopspring/decimal"

	"simbroker/services/engine"
	"simbroker/services/series"
)

type Config struct {
	Addr     string
	Database string
	Table    string
	User     string
	Password string
}

type Client struct {
	conn clickhouse.Conn
	cfg  Config
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{conn: conn, cfg: cfg}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// LoadBars reads canonical bars for one symbol/interval window into a Series.
func (c *Client) LoadBars(ctx context.Context, sym engine.SymInfo, interval string, startMs, endMs uint64) (*series.Series, error) {
	query := fmt.Sprintf(`
		SELECT open_time_ms, open, high, low, close, volume, close_time_ms
		FROM %s.%s
		WHERE symbol = ? AND interval = ? AND open_time_ms >= ? AND open_time_ms < ?
		ORDER BY open_time_ms`, c.cfg.Database, c.cfg.Table)
	rows, err := c.conn.Query(ctx, query, sym.Symbol, interval, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	var bars []engine.Bar
	for rows.Next() {
		var (
			openMs, closeMs         uint64
			open, high, low, closeP float64
			volume                  float64
		)
		if err := rows.Scan(&openMs, &open, &high, &low, &closeP, &volume, &closeMs); err != nil {
			return nil, fmt.Errorf("load bars: scan: %w", err)
		}
		bars = append(bars, engine.Bar{
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(closeP),
			Volume:    decimal.NewFromFloat(volume),
			OpenTime:  int64(openMs),
			CloseTime: int64(closeMs),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("load bars: no rows for %s %s", sym.Symbol, interval)
	}
	return series.New(sym, bars)
}

// EnsureResultSchema creates the audit tables used by InsertResults.
func (c *Client) EnsureResultSchema(ctx context.Context) error {
	tradesDDL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.sim_trades (
			job_id String,
			symbol String,
			seq UInt32,
			size Float64,
			entry_bar Int32,
			entry_price Float64,
			exit_bar Int32,
			exit_price Float64,
			pnl Float64,
			created_at DateTime64(3)
		)
		ENGINE = MergeTree
		ORDER BY (job_id, seq)`, c.cfg.Database)
	if err := c.conn.Exec(ctx, tradesDDL); err != nil {
		return fmt.Errorf("create sim_trades: %w", err)
	}
	equityDDL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.sim_equity (
			job_id String,
			symbol String,
			bar_index UInt32,
			equity Float64,
			net_equity Float64,
			created_at DateTime64(3)
		)
		ENGINE = MergeTree
		ORDER BY (job_id, bar_index)`, c.cfg.Database)
	if err := c.conn.Exec(ctx, equityDDL); err != nil {
		return fmt.Errorf("create sim_equity: %w", err)
	}
	return nil
}

// InsertResults writes a run's closed-trade ledger and equity curves.
func (c *Client) InsertResults(ctx context.Context, jobID, symbol string, trades []*engine.Trade, equity, netEquity []decimal.Decimal) error {
	now := time.Now().UTC()

	batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s.sim_trades", c.cfg.Database))
	if err != nil {
		return fmt.Errorf("prepare trades batch: %w", err)
	}
	for i, t := range trades {
		var exitBar int32
		var exitPrice float64
		if t.Exit != nil {
			exitBar = int32(t.Exit.FillBar)
			exitPrice = t.Exit.Price.InexactFloat64()
		} else {
			exitBar = -1
		}
		if err := batch.Append(
			jobID,
			symbol,
			uint32(i),
			t.Size.InexactFloat64(),
			int32(t.Entry.FillBar),
			t.Entry.Price.InexactFloat64(),
			exitBar,
			exitPrice,
			t.PnL.InexactFloat64(),
			now,
		); err != nil {
			return fmt.Errorf("append trade %d: %w", i, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send trades batch: %w", err)
	}

	eqBatch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s.sim_equity", c.cfg.Database))
	if err != nil {
		return fmt.Errorf("prepare equity batch: %w", err)
	}
	for i := range equity {
		if err := eqBatch.Append(
			jobID,
			symbol,
			uint32(i),
			equity[i].InexactFloat64(),
			netEquity[i].InexactFloat64(),
			now,
		); err != nil {
			return fmt.Errorf("append equity %d: %w", i, err)
		}
	}
	if err := eqBatch.Send(); err != nil {
		return fmt.Errorf("send equity batch: %w", err)
	}
	return nil
}
