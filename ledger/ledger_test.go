package ledger

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/evdnx/signalbot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

func TestOpenCreatesOpenPosition(t *testing.T) {
	l := New()
	p := l.Open("BTC/USDT", types.Buy, 0.5, 43000, t0)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, Open, p.Status)
	assert.Zero(t, p.Profit)
	assert.Equal(t, 1, l.OpenCount())
	assert.Equal(t, 1, l.TradeCount())
}

func TestCloseComputesProfitPerSide(t *testing.T) {
	l := New()
	long := l.Open("BTC/USDT", types.Buy, 2, 100, t0)
	short := l.Open("BTC/USDT", types.Sell, 2, 100, t0)

	closedLong, err := l.Close(long.ID, 110, t0.Add(time.Hour), "take_profit")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, closedLong.Profit, 1e-9)
	assert.Equal(t, Closed, closedLong.Status)
	assert.Equal(t, "take_profit", closedLong.ExitReason)

	closedShort, err := l.Close(short.ID, 110, t0.Add(time.Hour), "stop_loss")
	require.NoError(t, err)
	assert.InDelta(t, -20.0, closedShort.Profit, 1e-9)

	assert.InDelta(t, 0.0, l.RealizedPnL(), 1e-9)
	assert.Empty(t, l.OpenPositions("", ""))
	assert.Len(t, l.ClosedPositions(), 2)
}

func TestCloseTwiceIsRejectedAndKeepsFirstResult(t *testing.T) {
	l := New()
	p := l.Open("ETH/USDT", types.Buy, 1, 2000, t0)

	first, err := l.Close(p.ID, 2100, t0.Add(time.Hour), "signal")
	require.NoError(t, err)

	second, err := l.Close(p.ID, 1500, t0.Add(2*time.Hour), "signal")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPositionClosed))
	assert.Equal(t, first, second)

	got, ok := l.Get(p.ID)
	require.True(t, ok)
	assert.InDelta(t, 100.0, got.Profit, 1e-9)
	assert.Equal(t, 2100.0, got.ExitPrice)
}

func TestCloseUnknownPosition(t *testing.T) {
	_, err := New().Close("missing", 1, t0, "")
	assert.Error(t, err)
}

func TestOpenPositionsFilters(t *testing.T) {
	l := New()
	l.Open("BTC/USDT", types.Buy, 1, 100, t0)
	l.Open("BTC/USDT", types.Sell, 1, 100, t0)
	l.Open("ETH/USDT", types.Buy, 1, 100, t0)

	assert.Len(t, l.OpenPositions("BTC/USDT", types.Buy), 1)
	assert.Len(t, l.OpenPositions("BTC/USDT", ""), 2)
	assert.Len(t, l.OpenPositions("", types.Buy), 2)
	assert.Len(t, l.All(), 3)
}

func TestPerformance(t *testing.T) {
	l := New()
	assert.Equal(t, Performance{}, l.Performance())

	for _, exit := range []float64{110, 95, 120} {
		p := l.Open("BTC/USDT", types.Buy, 1, 100, t0)
		_, err := l.Close(p.ID, exit, t0, "signal")
		require.NoError(t, err)
	}
	l.Open("BTC/USDT", types.Buy, 1, 100, t0) // still open, ignored

	perf := l.Performance()
	assert.Equal(t, 3, perf.TotalTrades)
	assert.Equal(t, 2, perf.WinningTrades)
	assert.Equal(t, 1, perf.LosingTrades)
	assert.InDelta(t, 200.0/3.0, perf.WinRate, 1e-9)
	assert.InDelta(t, 25.0, perf.TotalProfit, 1e-9)
	assert.InDelta(t, 20.0, perf.MaxProfit, 1e-9)
	assert.InDelta(t, -5.0, perf.MaxLoss, 1e-9)
}

func TestCloseRejectsNonFiniteExitPrice(t *testing.T) {
	l := New()
	p := l.Open("BTC/USDT", types.Buy, 1, 100, t0)

	for _, price := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := l.Close(p.ID, price, t0.Add(time.Hour), "time_limit")
		require.Error(t, err)
	}

	got, ok := l.Get(p.ID)
	require.True(t, ok)
	assert.True(t, got.IsOpen())
	assert.Zero(t, got.ExitPrice)
	assert.True(t, got.ExitTime.IsZero())
	assert.Empty(t, got.ExitReason)

	closed, err := l.Close(p.ID, 101, t0.Add(time.Hour), "take_profit")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, closed.Profit, 1e-9)
}
