package signalbot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/executor"
	"github.com/evdnx/signalbot/market"
	"github.com/evdnx/signalbot/strategy"
	"github.com/evdnx/signalbot/testutils"
)

func syntheticConfig() *config.Config {
	cfg := config.Default()
	cfg.DataSource = "synthetic"
	cfg.LogFile = ""
	return &cfg
}

func TestNewRunsAnalysisOnlyCycle(t *testing.T) {
	app, err := New(syntheticConfig(), nil, Options{Symbol: "ETH/USDT"})
	require.NoError(t, err)

	rep, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strategy.StatusSuccess, rep.Status)
	assert.Equal(t, "ETH/USDT", rep.Symbol)
	assert.True(t, rep.AnalysisOnly)
	assert.False(t, rep.TradeExecuted)
	assert.Equal(t, 10_000.0, rep.Balance)
	assert.NotEqual(t, strategy.InsufficientData, rep.Analysis.Trend)
	assert.Zero(t, app.Ledger.OpenCount())

	last, ok := app.Bot.LastReport()
	require.True(t, ok)
	assert.Equal(t, rep.Price, last.Price)
}

func TestNewUsesInjectedCollaborators(t *testing.T) {
	start := time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)
	clock := testutils.NewClock(start)
	exec := testutils.NewMockExecutor(5_000)
	src := testutils.NewStubSource(testutils.BarsFromCloses(start, flatCloses(60, 100)), 100)

	app, err := New(syntheticConfig(), nil, Options{
		Symbol:    "BTC/USDT",
		AutoTrade: true,
		Source:    src,
		Exec:      exec,
		Now:       clock.Now,
	})
	require.NoError(t, err)

	rep, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.AnalysisOnly)
	assert.Equal(t, 5_000.0, rep.Balance)
	assert.Equal(t, start, rep.Time)
	assert.Equal(t, 2, src.Calls())
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := syntheticConfig()
	cfg.TradeAmount = 0
	_, err := New(cfg, nil, Options{})
	assert.Error(t, err)

	_, err = New(nil, nil, Options{})
	assert.Error(t, err)
}

func TestNewSourceAndExecutor(t *testing.T) {
	cfg := syntheticConfig()

	src, err := NewSource(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &market.Synthetic{}, src)

	cfg.DataSource = "okx"
	src, err = NewSource(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &market.Fallback{}, src)

	cfg.DataSource = "binance"
	_, err = NewSource(cfg, nil)
	assert.Error(t, err)

	ex, err := NewExecutor(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &executor.PaperExecutor{}, ex)

	cfg.Executor = "none"
	ex, err = NewExecutor(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, executor.NopExecutor{}, ex)

	cfg.Executor = "live"
	_, err = NewExecutor(cfg, nil)
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	app, err := New(syntheticConfig(), nil, Options{Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, false) }()

	require.Eventually(t, func() bool { return app.Bot.Status().Cycles >= 2 }, 3*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.False(t, app.Bot.Status().Running)
}

func TestServeReturnsWhenBotStops(t *testing.T) {
	app, err := New(syntheticConfig(), nil, Options{Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Serve(context.Background(), false) }()

	require.Eventually(t, func() bool { return app.Bot.Status().Running }, 3*time.Second, 5*time.Millisecond)
	app.Bot.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
