// Package proto defines the wire types of the simulation service API.
package proto

// APIError is the service-level error envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

var (
	ErrInvalidRequest  = APIError{Code: "INVALID_REQUEST", Message: "Request validation failed"}
	ErrInvalidSize     = APIError{Code: "INVALID_SIZE", Message: "Trade size quantizes to zero"}
	ErrQueueRejected   = APIError{Code: "QUEUE_REJECTED", Message: "Order rejected by quantization"}
	ErrDataNotFound    = APIError{Code: "DATA_NOT_FOUND", Message: "Required data not available"}
	ErrExecutionFailed = APIError{Code: "EXECUTION_FAILED", Message: "Simulation execution failed"}
)

// SimulationRequest runs one strategy replay over inline bars or a stored
// data window. Signals are textual ("long", "short", "close", "hold") keyed
// by bar index.
type SimulationRequest struct {
	Symbol               string   `json:"symbol"`
	Interval             string   `json:"interval"`
	StartTime            uint64   `json:"start_time,omitempty"`
	EndTime              uint64   `json:"end_time,omitempty"`
	Bars                 []BarRow `json:"bars,omitempty"`
	Signals              []string `json:"signals"`
	InitialCapital       string   `json:"initial_capital"`
	ProcessOrdersOnClose bool     `json:"process_orders_on_close"`
	MinQty               string   `json:"min_qty"`
	MinTick              string   `json:"min_tick"`
}

type BarRow struct {
	OpenTimeMs  int64  `json:"open_time_ms"`
	Open        string `json:"open"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Close       string `json:"close"`
	Volume      string `json:"volume,omitempty"`
	CloseTimeMs int64  `json:"close_time_ms,omitempty"`
}

type TradeRow struct {
	Size       string `json:"size"`
	EntryBar   int    `json:"entry_bar"`
	EntryPrice string `json:"entry_price"`
	ExitBar    int    `json:"exit_bar"`
	ExitPrice  string `json:"exit_price,omitempty"`
	PnL        string `json:"pnl"`
	Tag        string `json:"tag,omitempty"`
	Closed     bool   `json:"closed"`
}

type EquityPoint struct {
	BarIndex  int    `json:"bar_index"`
	Equity    string `json:"equity"`
	NetEquity string `json:"net_equity"`
}

type SummaryMetrics struct {
	NetProfit     string  `json:"net_profit"`
	GrossProfit   string  `json:"gross_profit"`
	GrossLoss     string  `json:"gross_loss"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	AverageTrade  string  `json:"average_trade"`
	Sharpe        float64 `json:"sharpe"`
	Sortino       float64 `json:"sortino"`
}

type SimulationResponse struct {
	JobID       string         `json:"job_id"`
	Symbol      string         `json:"symbol"`
	Trades      []TradeRow     `json:"trades"`
	EquityCurve []EquityPoint  `json:"equity_curve"`
	Metrics     SummaryMetrics `json:"metrics"`
	Error       *APIError      `json:"error,omitempty"`
}
