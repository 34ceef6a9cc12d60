// Package arrowpipeline serializes simulation results to Apache Arrow IPC so
// downstream analysis tooling can consume them without re-parsing text.
package arrowpipeline

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"simbroker/services/engine"
)

type Pipeline struct {
	memoryPool memory.Allocator
	logger     *zap.Logger
}

func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		memoryPool: memory.NewGoAllocator(),
		logger:     logger,
	}
}

// EquityToArrow encodes the per-bar equity curves as one Arrow record.
func (p *Pipeline) EquityToArrow(openTimes []int64, equity, netEquity []decimal.Decimal) ([]byte, error) {
	if len(equity) == 0 {
		return nil, fmt.Errorf("no equity points to convert")
	}
	if len(openTimes) != len(equity) || len(netEquity) != len(equity) {
		return nil, fmt.Errorf("equity series lengths differ: %d / %d / %d", len(openTimes), len(equity), len(netEquity))
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "open_time_ms", Type: arrow.PrimitiveTypes.Int64},
		{Name: "equity", Type: arrow.PrimitiveTypes.Float64},
		{Name: "net_equity", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	eq := make([]float64, len(equity))
	net := make([]float64, len(equity))
	for i := range equity {
		eq[i] = equity[i].InexactFloat64()
		net[i] = netEquity[i].InexactFloat64()
	}

	timeBuilder := array.NewInt64Builder(p.memoryPool)
	timeBuilder.AppendValues(openTimes, nil)
	timeArray := timeBuilder.NewInt64Array()

	eqBuilder := array.NewFloat64Builder(p.memoryPool)
	eqBuilder.AppendValues(eq, nil)
	eqArray := eqBuilder.NewFloat64Array()

	netBuilder := array.NewFloat64Builder(p.memoryPool)
	netBuilder.AppendValues(net, nil)
	netArray := netBuilder.NewFloat64Array()

	record := array.NewRecord(schema, []arrow.Array{timeArray, eqArray, netArray}, int64(len(equity)))
	defer record.Release()

	return p.serialize(schema, record)
}

// TradesToArrow encodes the closed-trade ledger as one Arrow record.
func (p *Pipeline) TradesToArrow(trades []*engine.Trade) ([]byte, error) {
	if len(trades) == 0 {
		return nil, fmt.Errorf("no trades to convert")
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "size", Type: arrow.PrimitiveTypes.Float64},
		{Name: "entry_bar", Type: arrow.PrimitiveTypes.Int32},
		{Name: "entry_price", Type: arrow.PrimitiveTypes.Float64},
		{Name: "exit_bar", Type: arrow.PrimitiveTypes.Int32},
		{Name: "exit_price", Type: arrow.PrimitiveTypes.Float64},
		{Name: "pnl", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	n := len(trades)
	sizes := make([]float64, n)
	entryBars := make([]int32, n)
	entryPrices := make([]float64, n)
	exitBars := make([]int32, n)
	exitPrices := make([]float64, n)
	pnls := make([]float64, n)
	for i, t := range trades {
		if t.Entry == nil {
			return nil, fmt.Errorf("trade %d has no entry", i)
		}
		sizes[i] = t.Size.InexactFloat64()
		entryBars[i] = int32(t.Entry.FillBar)
		entryPrices[i] = t.Entry.Price.InexactFloat64()
		if t.Exit != nil {
			exitBars[i] = int32(t.Exit.FillBar)
			exitPrices[i] = t.Exit.Price.InexactFloat64()
		} else {
			exitBars[i] = -1
		}
		pnls[i] = t.PnL.InexactFloat64()
	}

	sizeBuilder := array.NewFloat64Builder(p.memoryPool)
	sizeBuilder.AppendValues(sizes, nil)
	sizeArray := sizeBuilder.NewFloat64Array()

	entryBarBuilder := array.NewInt32Builder(p.memoryPool)
	entryBarBuilder.AppendValues(entryBars, nil)
	entryBarArray := entryBarBuilder.NewInt32Array()

	entryPriceBuilder := array.NewFloat64Builder(p.memoryPool)
	entryPriceBuilder.AppendValues(entryPrices, nil)
	entryPriceArray := entryPriceBuilder.NewFloat64Array()

	exitBarBuilder := array.NewInt32Builder(p.memoryPool)
	exitBarBuilder.AppendValues(exitBars, nil)
	exitBarArray := exitBarBuilder.NewInt32Array()

	exitPriceBuilder := array.NewFloat64Builder(p.memoryPool)
	exitPriceBuilder.AppendValues(exitPrices, nil)
	exitPriceArray := exitPriceBuilder.NewFloat64Array()

	pnlBuilder := array.NewFloat64Builder(p.memoryPool)
	pnlBuilder.AppendValues(pnls, nil)
	pnlArray := pnlBuilder.NewFloat64Array()

	record := array.NewRecord(schema, []arrow.Array{
		sizeArray,
		entryBarArray,
		entryPriceArray,
		exitBarArray,
		exitPriceArray,
		pnlArray,
	}, int64(n))
	defer record.Release()

	return p.serialize(schema, record)
}

func (p *Pipeline) serialize(schema *arrow.Schema, record arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write Arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close Arrow writer: %w", err)
	}
	return buf.Bytes(), nil
}
