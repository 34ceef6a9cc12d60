// Command server exposes the simulation engine over HTTP: submit a signal
// replay, read back the ledger as JSON or Arrow IPC, and audit the run
// manifest.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"simbroker/proto"
	"simbroker/services/arrowpipeline"
	"simbroker/services/clickhouse"
	"simbroker/services/config"
	"simbroker/services/engine"
	"simbroker/services/series"
)

// SimService runs simulations for API callers and keeps finished jobs in
// memory for the follow-up result endpoints.
type SimService struct {
	cfg    *config.Config
	logger *zap.Logger
	arrow  *arrowpipeline.Pipeline
	ch     *clickhouse.Client

	mu   sync.RWMutex
	jobs map[string]*jobResult
}

type jobResult struct {
	response  *proto.SimulationResponse
	manifest  *config.RunManifest
	trades    []*engine.Trade
	openTimes []int64
	equity    []decimal.Decimal
	netEquity []decimal.Decimal
}

func NewSimService(cfg *config.Config, logger *zap.Logger) *SimService {
	s := &SimService{
		cfg:    cfg,
		logger: logger,
		arrow:  arrowpipeline.NewPipeline(logger),
		jobs:   make(map[string]*jobResult),
	}

	// ClickHouse is optional: without it only inline-bar requests work.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := clickhouse.NewClient(ctx, clickhouse.Config{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Table:    cfg.ClickHouse.Table,
		User:     cfg.ClickHouse.User,
		Password: cfg.ClickHouse.Password,
	})
	if err != nil {
		logger.Warn("ClickHouse unavailable, stored-data requests disabled", zap.Error(err))
	} else {
		s.ch = ch
	}
	return s
}

func (s *SimService) setupRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/simulate", s.handleSimulate)
		api.GET("/jobs/:job_id", s.handleGetJob)
		api.GET("/jobs/:job_id/manifest", s.handleGetManifest)
		api.GET("/jobs/:job_id/equity.arrow", s.handleEquityArrow)
		api.GET("/jobs/:job_id/trades.arrow", s.handleTradesArrow)
		api.GET("/health", s.handleHealth)
	}
}

func (s *SimService) handleSimulate(c *gin.Context) {
	var req proto.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiErr := proto.ErrInvalidRequest
		apiErr.Details = err.Error()
		c.JSON(http.StatusBadRequest, proto.SimulationResponse{Error: &apiErr})
		return
	}

	jobID := uuid.New().String()
	start := time.Now()
	s.logger.Info("Starting simulation",
		zap.String("job_id", jobID),
		zap.String("symbol", req.Symbol),
		zap.Int("signals", len(req.Signals)),
		zap.Int("inline_bars", len(req.Bars)),
	)

	result, status, apiErr := s.runSimulation(c.Request.Context(), jobID, &req)
	if apiErr != nil {
		s.logger.Error("Simulation failed",
			zap.String("job_id", jobID),
			zap.String("code", apiErr.Code),
			zap.String("details", apiErr.Details),
		)
		c.JSON(status, proto.SimulationResponse{JobID: jobID, Error: apiErr})
		return
	}

	s.mu.Lock()
	s.jobs[jobID] = result
	s.mu.Unlock()

	s.logger.Info("Simulation completed",
		zap.String("job_id", jobID),
		zap.Duration("execution_time", time.Since(start)),
		zap.Int("trades", len(result.response.Trades)),
	)
	c.JSON(http.StatusOK, result.response)
}

func (s *SimService) runSimulation(ctx context.Context, jobID string, req *proto.SimulationRequest) (*jobResult, int, *proto.APIError) {
	if req.Symbol == "" || len(req.Signals) == 0 {
		return nil, http.StatusBadRequest, detail(proto.ErrInvalidRequest, "symbol and signals are required")
	}

	sym := engine.SymInfo{
		Symbol:  req.Symbol,
		MinQty:  parseOr(req.MinQty, "0.01"),
		MinTick: parseOr(req.MinTick, "0.01"),
	}

	src, status, apiErr := s.loadSeries(ctx, sym, req)
	if apiErr != nil {
		return nil, status, apiErr
	}

	capital := parseOr(req.InitialCapital, s.cfg.Sim.InitialCapital)
	broker, err := engine.New(src, engine.Config{
		InitialCapital:       capital,
		ProcessOrdersOnClose: req.ProcessOrdersOnClose,
		Logger:               s.logger,
	})
	if err != nil {
		return nil, http.StatusBadRequest, detail(proto.ErrInvalidRequest, err.Error())
	}

	signals := make([]engine.Signal, len(req.Signals))
	for i, raw := range req.Signals {
		signals[i] = engine.ParseSignal(raw)
	}
	if err := broker.SignalList(signals); err != nil {
		if errors.Is(err, engine.ErrQueueRejected) || errors.Is(err, engine.ErrInvalidSize) {
			return nil, http.StatusUnprocessableEntity, detail(proto.ErrQueueRejected, err.Error())
		}
		return nil, http.StatusInternalServerError, detail(proto.ErrExecutionFailed, err.Error())
	}

	manifest, err := config.NewRunManifest(jobID, req.Symbol, req.Interval, req.StartTime, req.EndTime, req, capital.String())
	if err != nil {
		return nil, http.StatusInternalServerError, detail(proto.ErrExecutionFailed, err.Error())
	}

	bars := src.Bars()
	openTimes := make([]int64, len(bars))
	for i := range bars {
		openTimes[i] = bars[i].OpenTime
	}

	result := &jobResult{
		response:  buildResponse(jobID, req.Symbol, broker),
		manifest:  manifest,
		trades:    broker.ClosedTrades(),
		openTimes: openTimes,
		equity:    broker.EquitySeries(),
		netEquity: broker.NetEquitySeries(),
	}

	if s.ch != nil {
		if err := s.ch.EnsureResultSchema(ctx); err != nil {
			s.logger.Warn("Result schema check failed", zap.Error(err))
		} else if err := s.ch.InsertResults(ctx, jobID, req.Symbol, result.trades, result.equity, result.netEquity); err != nil {
			s.logger.Warn("Result persistence failed", zap.String("job_id", jobID), zap.Error(err))
		}
	}
	return result, http.StatusOK, nil
}

func (s *SimService) loadSeries(ctx context.Context, sym engine.SymInfo, req *proto.SimulationRequest) (*series.Series, int, *proto.APIError) {
	if len(req.Bars) > 0 {
		bars := make([]engine.Bar, len(req.Bars))
		for i, row := range req.Bars {
			var err error
			if bars[i], err = barFromRow(row); err != nil {
				return nil, http.StatusBadRequest, detail(proto.ErrInvalidRequest, fmt.Sprintf("bar %d: %v", i, err))
			}
		}
		src, err := series.New(sym, bars)
		if err != nil {
			return nil, http.StatusBadRequest, detail(proto.ErrInvalidRequest, err.Error())
		}
		return src, http.StatusOK, nil
	}

	if s.ch == nil {
		return nil, http.StatusNotFound, detail(proto.ErrDataNotFound, "no inline bars and no data store configured")
	}
	src, err := s.ch.LoadBars(ctx, sym, req.Interval, req.StartTime, req.EndTime)
	if err != nil {
		return nil, http.StatusNotFound, detail(proto.ErrDataNotFound, err.Error())
	}
	return src, http.StatusOK, nil
}

func parseOr(s, def string) decimal.Decimal {
	if v, err := decimal.NewFromString(s); err == nil {
		return v
	}
	return decimal.RequireFromString(def)
}

func barFromRow(row proto.BarRow) (engine.Bar, error) {
	bar := engine.Bar{OpenTime: row.OpenTimeMs, CloseTime: row.CloseTimeMs}
	if bar.CloseTime == 0 {
		bar.CloseTime = row.OpenTimeMs
	}
	var err error
	if bar.Open, err = decimal.NewFromString(row.Open); err != nil {
		return engine.Bar{}, fmt.Errorf("open: %w", err)
	}
	if bar.High, err = decimal.NewFromString(row.High); err != nil {
		return engine.Bar{}, fmt.Errorf("high: %w", err)
	}
	if bar.Low, err = decimal.NewFromString(row.Low); err != nil {
		return engine.Bar{}, fmt.Errorf("low: %w", err)
	}
	if bar.Close, err = decimal.NewFromString(row.Close); err != nil {
		return engine.Bar{}, fmt.Errorf("close: %w", err)
	}
	if row.Volume != "" {
		if bar.Volume, err = decimal.NewFromString(row.Volume); err != nil {
			return engine.Bar{}, fmt.Errorf("volume: %w", err)
		}
	}
	return bar, nil
}

func buildResponse(jobID, symbol string, b *engine.Broker) *proto.SimulationResponse {
	resp := &proto.SimulationResponse{
		JobID:  jobID,
		Symbol: symbol,
		Metrics: proto.SummaryMetrics{
			NetProfit:     b.NetProfit().String(),
			GrossProfit:   b.GrossProfit().String(),
			GrossLoss:     b.GrossLoss().String(),
			WinningTrades: b.WinningTrades(),
			LosingTrades:  b.LosingTrades(),
			WinRate:       b.WinRate(),
			ProfitFactor:  b.ProfitFactor(),
			AverageTrade:  b.AverageTrade().String(),
			Sharpe:        b.SharpeRatio(0),
			Sortino:       b.SortinoRatio(0),
		},
	}

	for _, t := range b.ClosedTrades() {
		resp.Trades = append(resp.Trades, proto.TradeRow{
			Size:       t.Size.String(),
			EntryBar:   t.Entry.FillBar,
			EntryPrice: t.Entry.Price.String(),
			ExitBar:    t.Exit.FillBar,
			ExitPrice:  t.Exit.Price.String(),
			PnL:        t.PnL.String(),
			Tag:        t.Entry.ID,
			Closed:     true,
		})
	}
	for _, t := range b.OpenTrades() {
		resp.Trades = append(resp.Trades, proto.TradeRow{
			Size:       t.Size.String(),
			EntryBar:   t.Entry.FillBar,
			EntryPrice: t.Entry.Price.String(),
			ExitBar:    -1,
			PnL:        t.PnL.String(),
			Tag:        t.Entry.ID,
		})
	}

	equity := b.EquitySeries()
	net := b.NetEquitySeries()
	for i := range equity {
		resp.EquityCurve = append(resp.EquityCurve, proto.EquityPoint{
			BarIndex:  i,
			Equity:    equity[i].String(),
			NetEquity: net[i].String(),
		})
	}
	return resp
}

func (s *SimService) job(c *gin.Context) *jobResult {
	s.mu.RLock()
	job, ok := s.jobs[c.Param("job_id")]
	s.mu.RUnlock()
	if !ok {
		apiErr := proto.ErrDataNotFound
		apiErr.Details = "unknown job id"
		c.JSON(http.StatusNotFound, gin.H{"error": apiErr})
		return nil
	}
	return job
}

func (s *SimService) handleGetJob(c *gin.Context) {
	if job := s.job(c); job != nil {
		c.JSON(http.StatusOK, job.response)
	}
}

func (s *SimService) handleGetManifest(c *gin.Context) {
	if job := s.job(c); job != nil {
		c.JSON(http.StatusOK, job.manifest)
	}
}

func (s *SimService) handleEquityArrow(c *gin.Context) {
	job := s.job(c)
	if job == nil {
		return
	}
	data, err := s.arrow.EquityToArrow(job.openTimes, job.equity, job.netEquity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": detail(proto.ErrExecutionFailed, err.Error())})
		return
	}
	c.Data(http.StatusOK, "application/vnd.apache.arrow.stream", data)
}

func (s *SimService) handleTradesArrow(c *gin.Context) {
	job := s.job(c)
	if job == nil {
		return
	}
	data, err := s.arrow.TradesToArrow(job.trades)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": detail(proto.ErrExecutionFailed, err.Error())})
		return
	}
	c.Data(http.StatusOK, "application/vnd.apache.arrow.stream", data)
}

func (s *SimService) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"version":   config.EngineVersion,
	})
}

func detail(base proto.APIError, details string) *proto.APIError {
	base.Details = details
	return &base
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting simulation service",
		zap.String("version", config.EngineVersion),
		zap.String("environment", cfg.Environment),
	)

	service := NewSimService(cfg, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	service.setupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	if service.ch != nil {
		service.ch.Close()
	}
	logger.Info("Server stopped")
}
