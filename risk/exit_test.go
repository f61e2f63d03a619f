package risk

import (
	"testing"
	"time"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/types"
	"github.com/stretchr/testify/assert"
)

var profile = config.SymbolProfile{
	RSIOversold: 30, RSIOverbought: 70, StopLoss: 0.02, TakeProfit: 0.03, Volatility: config.Medium,
}

func TestShouldCloseStopLoss(t *testing.T) {
	m, clock := newManager(t)
	exit := m.ShouldClose(100, 98, types.Buy, clock.Now(), profile)
	assert.True(t, exit.Close)
	assert.Equal(t, ExitStopLoss, exit.Reason)
	assert.InDelta(t, -0.02, exit.PnLPercent, 1e-12)
}

func TestShouldCloseTakeProfit(t *testing.T) {
	m, clock := newManager(t)
	exit := m.ShouldClose(100, 103, types.Buy, clock.Now(), profile)
	assert.Equal(t, ExitTakeProfit, exit.Reason)

	exit = m.ShouldClose(100, 96, types.Sell, clock.Now(), profile)
	assert.Equal(t, ExitTakeProfit, exit.Reason)
	assert.InDelta(t, 0.04, exit.PnLPercent, 1e-12)
}

func TestShouldCloseShortStopLoss(t *testing.T) {
	m, clock := newManager(t)
	exit := m.ShouldClose(100, 102.5, types.Sell, clock.Now(), profile)
	assert.Equal(t, ExitStopLoss, exit.Reason)
}

func TestShouldCloseTimeLimit(t *testing.T) {
	m, clock := newManager(t)
	entry := clock.Now()

	clock.Advance(23*time.Hour + 59*time.Minute)
	assert.False(t, m.ShouldClose(100, 100.5, types.Buy, entry, profile).Close)

	clock.Advance(time.Minute)
	exit := m.ShouldClose(100, 100.5, types.Buy, entry, profile)
	assert.True(t, exit.Close)
	assert.Equal(t, ExitTimeLimit, exit.Reason)
}

func TestShouldClosePriorityStopLossBeforeTimeLimit(t *testing.T) {
	m, clock := newManager(t)
	entry := clock.Now()
	clock.Advance(48 * time.Hour)
	assert.Equal(t, ExitStopLoss, m.ShouldClose(100, 90, types.Buy, entry, profile).Reason)
}

func TestShouldCloseHold(t *testing.T) {
	m, clock := newManager(t)
	exit := m.ShouldClose(100, 101, types.Buy, clock.Now(), profile)
	assert.False(t, exit.Close)
	assert.Empty(t, exit.Reason)
}

func TestStopAndTargetPrices(t *testing.T) {
	assert.InDelta(t, 98.0, StopLossPrice(100, types.Buy, profile), 1e-9)
	assert.InDelta(t, 102.0, StopLossPrice(100, types.Sell, profile), 1e-9)
	assert.InDelta(t, 103.0, TakeProfitPrice(100, types.Buy, profile), 1e-9)
	assert.InDelta(t, 97.0, TakeProfitPrice(100, types.Sell, profile), 1e-9)
}
