// Package market supplies price bars and tickers. A live source can be
// wrapped in Fallback so that a failed fetch is served from the
// deterministic Synthetic source instead.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/evdnx/signalbot/logger"
	"github.com/evdnx/signalbot/metrics"
	"github.com/evdnx/signalbot/types"
)

// DataSource is the market data capability the strategy depends on.
// Bars are returned oldest first.
type DataSource interface {
	Bars(ctx context.Context, symbol, timeframe string, limit int) ([]types.Bar, error)
	Ticker(ctx context.Context, symbol string) (types.Ticker, error)
}

// Timeframe parses bar intervals such as "15m", "1h" or "1d".
func Timeframe(tf string) (time.Duration, error) {
	switch tf {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("market: unsupported timeframe %q", tf)
}

// Fallback serves from Primary and switches to Secondary for any call
// that fails.
type Fallback struct {
	Primary   DataSource
	Secondary DataSource
	Log       logger.Logger
}

func NewFallback(primary, secondary DataSource, log logger.Logger) *Fallback {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fallback{Primary: primary, Secondary: secondary, Log: log}
}

func (f *Fallback) Bars(ctx context.Context, symbol, timeframe string, limit int) ([]types.Bar, error) {
	bars, err := f.Primary.Bars(ctx, symbol, timeframe, limit)
	if err == nil {
		return bars, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	f.fellBack("bars", symbol, err)
	return f.Secondary.Bars(ctx, symbol, timeframe, limit)
}

func (f *Fallback) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	t, err := f.Primary.Ticker(ctx, symbol)
	if err == nil {
		return t, nil
	}
	if ctx.Err() != nil {
		return types.Ticker{}, ctx.Err()
	}
	f.fellBack("ticker", symbol, err)
	return f.Secondary.Ticker(ctx, symbol)
}

func (f *Fallback) fellBack(kind, symbol string, err error) {
	f.Log.Warn("market_data_fallback",
		logger.String("kind", kind),
		logger.String("symbol", symbol),
		logger.Err(err),
	)
	metrics.DataFallbacks.WithLabelValues(kind).Inc()
}
