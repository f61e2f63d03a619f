package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/testutils"
	"github.com/evdnx/signalbot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openCount int

func (o openCount) OpenCount() int { return int(o) }

func newManager(t *testing.T, opts ...Option) (*Manager, *testutils.Clock) {
	t.Helper()
	cfg := config.Default()
	clock := testutils.NewClock(time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC))
	return NewManager(&cfg, append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func TestCanTradeAllChecksPass(t *testing.T) {
	m, _ := newManager(t, WithPositions(openCount(0)))
	c := m.CanTrade(100, 1000)
	if !c.Allowed {
		t.Fatalf("expected trade allowed, reasons: %v", c.Reasons)
	}
	if c.Err != nil {
		t.Fatalf("unexpected error: %v", c.Err)
	}
	for name, ok := range c.Checks {
		if !ok {
			t.Fatalf("check %s failed", name)
		}
	}
	if len(c.Checks) != 5 {
		t.Fatalf("expected five checks, got %d", len(c.Checks))
	}
}

func TestCanTradeInsufficientBalanceBuffer(t *testing.T) {
	m, _ := newManager(t)
	c := m.CanTrade(100, 109.99)
	assert.False(t, c.Allowed)
	assert.False(t, c.Checks[CheckBalance])
	assert.True(t, errors.Is(c.Err, types.ErrRiskViolation))
	require.Len(t, c.Reasons, 1)
	assert.Contains(t, c.Reasons[0], "insufficient balance")

	assert.True(t, m.CanTrade(100, 110).Allowed)
}

func TestCanTradeDailyLossLimit(t *testing.T) {
	m, _ := newManager(t)
	m.RecordTrade(-300)
	assert.True(t, m.CanTrade(100, 10_000).Allowed)

	m.RecordTrade(-200) // total loss 500 = 5 x 100
	c := m.CanTrade(100, 10_000)
	assert.False(t, c.Allowed)
	assert.False(t, c.Checks[CheckDailyLoss])
}

func TestCanTradeDailyTradesLimit(t *testing.T) {
	m, _ := newManager(t)
	for i := 0; i < 20; i++ {
		m.RecordTrade(1)
	}
	c := m.CanTrade(100, 10_000)
	assert.False(t, c.Checks[CheckDailyTrades])
	assert.True(t, c.Checks[CheckDailyLoss])
}

func TestCanTradeDrawdownUsesPreviousPeak(t *testing.T) {
	m, _ := newManager(t)
	assert.True(t, m.CanTrade(100, 10_000).Allowed)
	assert.Equal(t, 10_000.0, m.Peak())

	c := m.CanTrade(100, 9_000) // exactly 10 %
	assert.True(t, c.Checks[CheckMaxDrawdown])
	assert.InDelta(t, 0.10, c.Drawdown, 1e-12)

	c = m.CanTrade(100, 8_999)
	assert.False(t, c.Checks[CheckMaxDrawdown])
	assert.Equal(t, 10_000.0, c.Peak)
}

func TestCanTradeMultipleFailuresCombineErrors(t *testing.T) {
	m, _ := newManager(t, WithPositions(openCount(3)))
	for i := 0; i < 20; i++ {
		m.RecordTrade(-50)
	}
	c := m.CanTrade(100, 50)
	assert.False(t, c.Allowed)
	assert.Len(t, c.Reasons, 4)
	assert.False(t, c.Checks[CheckPositionLimit])
	assert.True(t, c.Checks[CheckMaxDrawdown])
	assert.True(t, errors.Is(c.Err, types.ErrRiskViolation))
}

func TestAccountPeakNeverDecreases(t *testing.T) {
	m, _ := newManager(t)
	balances := []float64{500, 1200, 300, 1100, 1500, 0, 1499}
	prev := 0.0
	for _, b := range balances {
		m.CanTrade(100, b)
		if m.Peak() < prev {
			t.Fatalf("peak decreased from %v to %v", prev, m.Peak())
		}
		prev = m.Peak()
	}
	if prev != 1500 {
		t.Fatalf("expected peak 1500, got %v", prev)
	}
}

func TestDailyStatsResetOncePerDate(t *testing.T) {
	m, clock := newManager(t)
	m.RecordTrade(10)
	m.RecordTrade(-4)
	d := m.Daily()
	assert.Equal(t, "2024-12-01", d.Date)
	assert.Equal(t, 2, d.TradesCount)
	assert.Equal(t, 10.0, d.TotalProfit)
	assert.Equal(t, -4.0, d.TotalLoss)

	// Later the same day: no reset.
	clock.Advance(13 * time.Hour)
	m.CanTrade(100, 1000)
	assert.Equal(t, 2, m.Daily().TradesCount)

	// Next UTC day: reset once, then accumulate again.
	clock.Advance(time.Hour)
	m.CanTrade(100, 1000)
	m.RecordTrade(5)
	m.CanTrade(100, 1000)
	d = m.Daily()
	assert.Equal(t, "2024-12-02", d.Date)
	assert.Equal(t, 1, d.TradesCount)
	assert.Equal(t, 5.0, d.TotalProfit)
	assert.Zero(t, d.TotalLoss)
}

func TestRecordTradeZeroProfitCountsAsLoss(t *testing.T) {
	m, _ := newManager(t)
	m.RecordTrade(0)
	d := m.Daily()
	assert.Equal(t, 1, d.TradesCount)
	assert.Zero(t, d.TotalProfit)
	assert.Zero(t, d.TotalLoss)
}

func TestPositionSize(t *testing.T) {
	m, _ := newManager(t)
	cases := []struct {
		balance, want float64
	}{
		{10_000, 100}, // 200 capped at trade amount
		{2_500, 50},
		{100, 10}, // 2 floored at the minimum
		{0, 10},
	}
	for _, tc := range cases {
		if got := m.PositionSize(tc.balance); got != tc.want {
			t.Fatalf("PositionSize(%v) = %v, want %v", tc.balance, got, tc.want)
		}
	}
}
