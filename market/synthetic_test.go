package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 12, 1, 10, 30, 0, 0, time.UTC)

func newSynthetic() *Synthetic {
	s := NewSynthetic()
	s.Now = func() time.Time { return fixedNow }
	return s
}

func TestSyntheticBarsAreReproducible(t *testing.T) {
	ctx := context.Background()
	a, err := newSynthetic().Bars(ctx, "BTC/USDT", "1h", 100)
	require.NoError(t, err)
	b, err := newSynthetic().Bars(ctx, "BTC/USDT", "1h", 100)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSyntheticBarsShape(t *testing.T) {
	bars, err := newSynthetic().Bars(context.Background(), "ETH/USDT", "1h", 100)
	require.NoError(t, err)
	require.Len(t, bars, 100)

	assert.Equal(t, 2300.0, bars[0].Close)
	assert.Equal(t, fixedNow.Truncate(time.Hour), bars[99].Time)
	for i, b := range bars {
		assert.GreaterOrEqual(t, b.Close, 1150.0)
		assert.GreaterOrEqual(t, b.High, b.Close)
		assert.GreaterOrEqual(t, b.High, b.Open)
		assert.LessOrEqual(t, b.Low, b.Close)
		assert.LessOrEqual(t, b.Low, b.Open)
		assert.GreaterOrEqual(t, b.Volume, 100.0)
		assert.Less(t, b.Volume, 1000.0)
		if i > 0 {
			assert.Equal(t, time.Hour, b.Time.Sub(bars[i-1].Time))
		}
	}
}

func TestSyntheticUnknownSymbolUsesUnitBase(t *testing.T) {
	bars, err := newSynthetic().Bars(context.Background(), "FOO/USDT", "1h", 10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, 1.0, BasePrice("FOO/USDT"))
}

func TestSyntheticUnknownTimeframeDefaultsToHourly(t *testing.T) {
	bars, err := newSynthetic().Bars(context.Background(), "BTC/USDT", "7x", 3)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, bars[2].Time.Sub(bars[1].Time))
}

func TestSyntheticTicker(t *testing.T) {
	s := newSynthetic()
	tk, err := s.Ticker(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	again, _ := s.Ticker(context.Background(), "BTC/USDT")
	assert.Equal(t, tk, again)

	assert.Equal(t, "BTC/USDT", tk.Symbol)
	assert.InDelta(t, 43000, tk.Price, 43000*0.25)
	assert.InDelta(t, tk.Price*0.001, tk.Ask-tk.Bid, 1e-6)
	assert.InDelta(t, tk.Price-43000, tk.Change, 1e-9)
}

func TestSyntheticHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSynthetic().Bars(ctx, "BTC/USDT", "1h", 10)
	assert.ErrorIs(t, err, context.Canceled)
}
