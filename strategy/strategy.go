// Package strategy runs the signal-driven trading cycle: indicators, trend
// votes, signals, risk exits and order placement for a single symbol.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/executor"
	"github.com/evdnx/signalbot/ledger"
	"github.com/evdnx/signalbot/logger"
	"github.com/evdnx/signalbot/market"
	"github.com/evdnx/signalbot/metrics"
	"github.com/evdnx/signalbot/risk"
	"github.com/evdnx/signalbot/types"
)

// balanceHistorySize bounds the balance samples kept for drawdown metrics.
const balanceHistorySize = 1000

// Deps are the collaborators a Strategy drives.
type Deps struct {
	Source   market.DataSource
	Exec     executor.Executor
	Ledger   *ledger.Ledger
	Risk     *risk.Manager
	Profiles *config.Profiles
	Log      logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Strategy owns one symbol's trading loop state. RunCycle must be called
// from a single goroutine; the read accessors are safe to call
// concurrently with it.
type Strategy struct {
	cfg    *config.Config
	symbol string

	src      market.DataSource
	exec     executor.Executor
	ledger   *ledger.Ledger
	risk     *risk.Manager
	profiles *config.Profiles
	log      logger.Logger
	now      func() time.Time

	mu           sync.RWMutex
	analysisOnly bool
	balances     *floatWindow
}

// New validates the config and wires the collaborators.
func New(cfg *config.Config, symbol string, d Deps) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if symbol == "" {
		symbol = cfg.DefaultSymbol
	}
	if d.Source == nil || d.Exec == nil || d.Ledger == nil || d.Risk == nil || d.Profiles == nil {
		return nil, errors.New("strategy: source, executor, ledger, risk manager and profiles are required")
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Strategy{
		cfg:      cfg,
		symbol:   symbol,
		src:      d.Source,
		exec:     d.Exec,
		ledger:   d.Ledger,
		risk:     d.Risk,
		profiles: d.Profiles,
		log:      d.Log,
		now:      d.Now,
		balances: newFloatWindow(balanceHistorySize),
	}, nil
}

func (s *Strategy) Symbol() string { return s.symbol }

// Profile returns the tuning applied to the strategy's symbol.
func (s *Strategy) Profile() config.SymbolProfile { return s.profiles.Get(s.symbol) }

// SetAnalysisOnly toggles order placement. In analysis-only mode every
// signal and exit is still computed and reported, but no order is sent.
func (s *Strategy) SetAnalysisOnly(on bool) {
	s.mu.Lock()
	s.analysisOnly = on
	s.mu.Unlock()
}

func (s *Strategy) AnalysisOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysisOnly
}

// RunCycle performs one full iteration for the symbol. Market data errors
// end the cycle with an error report; execution and risk failures are
// recorded in the report and do not fail the cycle.
func (s *Strategy) RunCycle(ctx context.Context) (Report, error) {
	start := s.now()
	analysisOnly := s.AnalysisOnly()
	profile := s.Profile()
	rep := Report{Status: StatusSuccess, Symbol: s.symbol, AnalysisOnly: analysisOnly, Time: start}

	bars, err := s.src.Bars(ctx, s.symbol, s.cfg.Timeframe, s.cfg.BarLimit)
	if err != nil {
		return rep.failed(fmt.Errorf("strategy: bars %s: %w", s.symbol, err))
	}
	ticker, err := s.src.Ticker(ctx, s.symbol)
	if err != nil {
		return rep.failed(fmt.Errorf("strategy: ticker %s: %w", s.symbol, err))
	}
	if !(ticker.Price > 0) || math.IsInf(ticker.Price, 0) {
		return rep.failed(fmt.Errorf("strategy: ticker %s: invalid price %v: %w", s.symbol, ticker.Price, types.ErrDataUnavailable))
	}
	price := ticker.Price
	rep.Price = price
	rep.Ticker = ticker

	dec := Evaluate(bars, s.cfg.Indicators, profile)
	rep.Buy, rep.Sell, rep.Reason, rep.Analysis = dec.Buy, dec.Sell, dec.Reason, dec.Analysis
	if dec.Analysis.Trend == InsufficientData {
		rep.Skipped = fmt.Errorf("%w: %d of %d bars", types.ErrInsufficientHistory, len(bars), MinTrendBars).Error()
		s.log.Warn("insufficient_history",
			logger.String("symbol", s.symbol),
			logger.Int("bars", len(bars)),
		)
	}
	if side := dec.Side(); side != "" {
		metrics.Signals.WithLabelValues(s.symbol, string(side)).Inc()
		s.log.Info("signal",
			logger.String("symbol", s.symbol),
			logger.String("side", string(side)),
			logger.String("reason", dec.Reason),
			logger.String("trend", string(dec.Analysis.Trend)),
			logger.Float64("strength", dec.Analysis.Strength),
			logger.Float64("rsi", dec.Analysis.RSI),
		)
	}

	s.applyExits(ctx, &rep, price, profile, analysisOnly)

	balance := s.balance(ctx)
	rep.Balance = balance

	if dec.Buy {
		s.tryBuy(ctx, &rep, balance, price, analysisOnly)
	}
	if dec.Sell {
		s.closeLongs(ctx, &rep, price, analysisOnly)
	}

	open := s.ledger.OpenPositions(s.symbol, "")
	rep.OpenPositions = open
	metrics.PositionsOpen.WithLabelValues(s.symbol).Set(float64(len(open)))
	metrics.RealizedPnL.Set(s.ledger.RealizedPnL())

	s.log.Debug("cycle_completed",
		logger.String("symbol", s.symbol),
		logger.Float64("price", price),
		logger.String("trend", string(rep.Analysis.Trend)),
		logger.Bool("buy", rep.Buy),
		logger.Bool("sell", rep.Sell),
		logger.Bool("trade_executed", rep.TradeExecuted),
		logger.Duration("elapsed", s.now().Sub(start)),
	)
	return rep, nil
}

// applyExits closes every open position of the symbol whose stop loss,
// take profit or holding limit has triggered.
func (s *Strategy) applyExits(ctx context.Context, rep *Report, price float64, p config.SymbolProfile, analysisOnly bool) {
	for _, pos := range s.ledger.OpenPositions(s.symbol, "") {
		exit := s.risk.ShouldClose(pos.EntryPrice, price, pos.Side, pos.EntryTime, p)
		if !exit.Close {
			continue
		}
		ev := ExitEvent{PositionID: pos.ID, Reason: exit.Reason, PnLPercent: exit.PnLPercent}
		if !analysisOnly {
			closed, err := s.closePosition(ctx, pos, price, exit.Reason)
			if err == nil {
				ev.Executed = true
				rep.Closed = append(rep.Closed, closed)
			}
		}
		rep.Exits = append(rep.Exits, ev)
	}
}

// balance reads the quote balance. A failed read counts as zero so no new
// trade is opened on it, and is kept out of the balance history.
func (s *Strategy) balance(ctx context.Context) float64 {
	bal, err := s.exec.Balance(ctx)
	if err != nil {
		s.log.Warn("balance_unavailable", logger.String("symbol", s.symbol), logger.Err(err))
		return 0
	}
	metrics.BalanceGauge.Set(bal)
	s.mu.Lock()
	s.balances.Add(bal)
	s.mu.Unlock()
	return bal
}

func (s *Strategy) tryBuy(ctx context.Context, rep *Report, balance, price float64, analysisOnly bool) {
	if n := len(s.ledger.OpenPositions(s.symbol, types.Buy)); n >= s.cfg.MaxPositions {
		rep.Skipped = fmt.Sprintf("max positions reached: %d", n)
		return
	}
	if balance < s.cfg.TradeAmount {
		rep.Skipped = fmt.Sprintf("balance %.2f below trade amount %.2f", balance, s.cfg.TradeAmount)
		return
	}

	size := s.risk.PositionSize(balance)
	check := s.risk.CanTrade(size, balance)
	rep.Risk = &check
	if !check.Allowed {
		for name, ok := range check.Checks {
			if !ok {
				metrics.RiskRejections.WithLabelValues(name).Inc()
			}
		}
		s.log.Warn("trade_blocked",
			logger.String("symbol", s.symbol),
			logger.Strings("reasons", check.Reasons),
			logger.Err(check.Err),
		)
		return
	}
	if analysisOnly {
		return
	}

	pos, err := s.openPosition(ctx, types.Buy, size/price, price, ReasonOpen)
	if err != nil {
		rep.Error = err.Error()
		return
	}
	rep.TradeExecuted = true
	rep.Opened = append(rep.Opened, pos)
}

// closeLongs flattens every open long of the symbol on a sell signal.
func (s *Strategy) closeLongs(ctx context.Context, rep *Report, price float64, analysisOnly bool) {
	if analysisOnly {
		return
	}
	for _, pos := range s.ledger.OpenPositions(s.symbol, types.Buy) {
		closed, err := s.closePosition(ctx, pos, price, ReasonSellSignal)
		if err != nil {
			rep.Error = err.Error()
			continue
		}
		rep.TradeExecuted = true
		rep.Closed = append(rep.Closed, closed)
	}
}
