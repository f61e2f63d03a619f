// Package risk guards the account: daily loss and trade limits, drawdown
// from the balance peak, balance buffer and position count, plus the exit
// rules applied to open positions.
package risk

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/types"
)

// Names of the individual checks evaluated by CanTrade.
const (
	CheckDailyLoss     = "daily_loss_limit"
	CheckDailyTrades   = "daily_trades_limit"
	CheckMaxDrawdown   = "max_drawdown"
	CheckBalance       = "sufficient_balance"
	CheckPositionLimit = "position_limit"
)

// PositionCounter reports how many positions are currently open.
type PositionCounter interface {
	OpenCount() int
}

// DailyStats accumulates the outcome of trades recorded on one UTC date.
// TotalLoss is never positive and TotalProfit never negative.
type DailyStats struct {
	Date        string  `json:"date"`
	TradesCount int     `json:"trades_count"`
	TotalLoss   float64 `json:"total_loss"`
	TotalProfit float64 `json:"total_profit"`
}

// Check is the outcome of CanTrade.
type Check struct {
	Allowed  bool            `json:"can_trade"`
	Checks   map[string]bool `json:"checks"`
	Reasons  []string        `json:"reasons"`
	Drawdown float64         `json:"drawdown"`
	Peak     float64         `json:"account_peak"`
	Daily    DailyStats      `json:"daily_stats"`
	// Err combines one ErrRiskViolation per failed check. Nil when allowed.
	Err error `json:"-"`
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock used for the daily rollover and the
// holding time limit.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithPositions enables the position limit check.
func WithPositions(pc PositionCounter) Option {
	return func(m *Manager) { m.positions = pc }
}

// Manager owns the daily stats and the account peak. Writes come from the
// trading loop; readers such as the dashboard may call Snapshot at any time.
type Manager struct {
	mu sync.Mutex

	limits         config.RiskLimits
	tradeAmount    float64
	dailyLossLimit float64
	maxPositions   int

	now       func() time.Time
	positions PositionCounter

	daily DailyStats
	peak  float64
}

// NewManager builds a manager from the loaded configuration.
func NewManager(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		limits:         cfg.Risk,
		tradeAmount:    cfg.TradeAmount,
		dailyLossLimit: cfg.DailyLossLimit(),
		maxPositions:   cfg.MaxPositions,
		now:            time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.daily = DailyStats{Date: m.today()}
	return m
}

func (m *Manager) today() string {
	return m.now().UTC().Format(time.DateOnly)
}

// rollover resets the daily stats once per new UTC date. Caller holds mu.
func (m *Manager) rollover() {
	if d := m.today(); d != m.daily.Date {
		m.daily = DailyStats{Date: d}
	}
}

// CanTrade evaluates every check against the supplied trade amount and
// balance. The account peak is raised to the balance afterwards, whether
// or not the checks pass.
func (m *Manager) CanTrade(amount, balance float64) Check {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()

	c := Check{
		Checks: map[string]bool{
			CheckDailyLoss:     true,
			CheckDailyTrades:   true,
			CheckMaxDrawdown:   true,
			CheckBalance:       true,
			CheckPositionLimit: true,
		},
		Reasons: []string{},
	}
	fail := func(name, reason string) {
		c.Checks[name] = false
		c.Reasons = append(c.Reasons, reason)
		c.Err = multierr.Append(c.Err, fmt.Errorf("%s: %w", reason, types.ErrRiskViolation))
	}

	if loss := -m.daily.TotalLoss; loss >= m.dailyLossLimit {
		fail(CheckDailyLoss, fmt.Sprintf("daily loss limit reached: %.2f", loss))
	}
	if m.daily.TradesCount >= m.limits.DailyTradesLimit {
		fail(CheckDailyTrades, fmt.Sprintf("daily trades limit reached: %d", m.daily.TradesCount))
	}
	if m.peak > 0 {
		c.Drawdown = (m.peak - balance) / m.peak
		if c.Drawdown > m.limits.MaxDrawdown {
			fail(CheckMaxDrawdown, fmt.Sprintf("max drawdown exceeded: %.2f%%", c.Drawdown*100))
		}
	}
	if need := amount * m.limits.BalanceBuffer; balance < need {
		fail(CheckBalance, fmt.Sprintf("insufficient balance: %.2f < %.2f", balance, need))
	}
	if m.positions != nil {
		if n := m.positions.OpenCount(); n >= m.maxPositions {
			fail(CheckPositionLimit, fmt.Sprintf("position limit reached: %d", n))
		}
	}

	if balance > m.peak {
		m.peak = balance
	}
	c.Allowed = c.Err == nil
	c.Peak = m.peak
	c.Daily = m.daily
	return c
}

// RecordTrade books the profit of one completed trade.
func (m *Manager) RecordTrade(profit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()

	m.daily.TradesCount++
	if profit > 0 {
		m.daily.TotalProfit += profit
	} else {
		m.daily.TotalLoss += profit
	}
}

// Daily returns the stats of the current UTC date.
func (m *Manager) Daily() DailyStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	return m.daily
}

// Peak returns the account high-water mark.
func (m *Manager) Peak() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// PositionSize returns the quote amount to commit: balance x risk per
// trade, capped at the trade amount and floored at the minimum.
func (m *Manager) PositionSize(balance float64) float64 {
	size := balance * m.limits.RiskPerTrade
	if size > m.tradeAmount {
		size = m.tradeAmount
	}
	if size < m.limits.MinTradeAmount {
		size = m.limits.MinTradeAmount
	}
	return size
}
