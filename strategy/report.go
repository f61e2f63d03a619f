package strategy

import (
	"time"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/ledger"
	"github.com/evdnx/signalbot/risk"
	"github.com/evdnx/signalbot/types"
)

// Report statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Order reasons used for positions opened and closed by the cycle.
const (
	ReasonOpen       = "buy_signal"
	ReasonSellSignal = "sell_signal"
)

// ExitEvent is a triggered risk exit. Executed is false when the closing
// order was not confirmed or the strategy runs analysis-only.
type ExitEvent struct {
	PositionID string  `json:"position_id"`
	Reason     string  `json:"reason"`
	PnLPercent float64 `json:"pnl_percent"`
	Executed   bool    `json:"executed"`
}

// Report is the outcome of one cycle.
type Report struct {
	Status        string            `json:"status"`
	Symbol        string            `json:"symbol"`
	Price         float64           `json:"price"`
	Ticker        types.Ticker      `json:"ticker"`
	Buy           bool              `json:"buy_signal"`
	Sell          bool              `json:"sell_signal"`
	Reason        string            `json:"signal_reason,omitempty"`
	TradeExecuted bool              `json:"trade_executed"`
	AnalysisOnly  bool              `json:"analysis_only"`
	Analysis      Analysis          `json:"analysis"`
	Balance       float64           `json:"balance"`
	OpenPositions []ledger.Position `json:"open_positions"`
	Opened        []ledger.Position `json:"opened,omitempty"`
	Closed        []ledger.Position `json:"closed,omitempty"`
	Exits         []ExitEvent       `json:"exits,omitempty"`
	Risk          *risk.Check       `json:"risk,omitempty"`
	Skipped       string            `json:"skipped,omitempty"`
	Error         string            `json:"error,omitempty"`
	Time          time.Time         `json:"timestamp"`
}

func (r Report) failed(err error) (Report, error) {
	r.Status = StatusError
	r.Error = err.Error()
	return r, err
}

// AccountSummary is a point-in-time view of the account.
type AccountSummary struct {
	Symbol          string               `json:"symbol"`
	Balance         float64              `json:"balance"`
	OpenPositions   int                  `json:"open_positions"`
	ClosedPositions int                  `json:"closed_positions"`
	TotalTrades     int                  `json:"total_trades"`
	RealizedPnL     float64              `json:"realized_pnl"`
	AccountPeak     float64              `json:"account_peak"`
	Daily           risk.DailyStats      `json:"daily_stats"`
	Profile         config.SymbolProfile `json:"profile"`
}

// AccountSummary reports the last sampled balance and ledger totals.
func (s *Strategy) AccountSummary() AccountSummary {
	s.mu.RLock()
	bal := s.balances.Last()
	s.mu.RUnlock()
	return AccountSummary{
		Symbol:          s.symbol,
		Balance:         bal,
		OpenPositions:   s.ledger.OpenCount(),
		ClosedPositions: len(s.ledger.ClosedPositions()),
		TotalTrades:     s.ledger.TradeCount(),
		RealizedPnL:     s.ledger.RealizedPnL(),
		AccountPeak:     s.risk.Peak(),
		Daily:           s.risk.Daily(),
		Profile:         s.Profile(),
	}
}

// Performance summarises the closed positions.
func (s *Strategy) Performance() ledger.Performance {
	return s.ledger.Performance()
}

// RiskMetrics computes win rate, profit factor and drawdown from the
// ledger and the sampled balance history.
func (s *Strategy) RiskMetrics() risk.Metrics {
	closed := s.ledger.ClosedPositions()
	profits := make([]float64, len(closed))
	for i, p := range closed {
		profits[i] = p.Profit
	}
	return risk.ComputeMetrics(profits, s.BalanceHistory())
}

// BalanceHistory returns the sampled balances, oldest first.
func (s *Strategy) BalanceHistory() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances.Values()
}

// Positions returns every position in the ledger.
func (s *Strategy) Positions() []ledger.Position {
	return s.ledger.All()
}
