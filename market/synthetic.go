package market

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/evdnx/signalbot/types"
)

// basePrices anchors synthetic series near realistic levels.
var basePrices = map[string]float64{
	"BTC/USDT":   43000,
	"ETH/USDT":   2300,
	"BNB/USDT":   240,
	"ADA/USDT":   0.45,
	"DOT/USDT":   7.2,
	"ATOM/USDT":  9.8,
	"ALGO/USDT":  0.18,
	"VET/USDT":   0.025,
	"LTC/USDT":   68,
	"SOL/USDT":   95,
	"AVAX/USDT":  38,
	"NEAR/USDT":  4.2,
	"LINK/USDT":  15.5,
	"UNI/USDT":   7.8,
	"MATIC/USDT": 0.85,
	"FIL/USDT":   4.5,
	"BCH/USDT":   230,
	"XRP/USDT":   0.62,
	"FTM/USDT":   0.35,
	"ICP/USDT":   12.5,
}

// BasePrice returns the anchor price of symbol, 1.0 when unknown.
func BasePrice(symbol string) float64 {
	if p, ok := basePrices[symbol]; ok {
		return p
	}
	return 1.0
}

const (
	syntheticSeed  = 42
	stepStdDev     = 0.02
	intrabarNoise  = 0.01
	tickerSwing    = 0.1
	tickerSpread   = 0.001
	syntheticFloor = 0.5
)

// Synthetic is a reproducible random-walk source. The same symbol and
// limit always produce the same prices; only timestamps follow the clock.
type Synthetic struct {
	Seed int64
	Now  func() time.Time
}

func NewSynthetic() *Synthetic {
	return &Synthetic{Seed: syntheticSeed, Now: time.Now}
}

func (s *Synthetic) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Bars walks from the base price with normally distributed steps, never
// dropping below half of the base.
func (s *Synthetic) Bars(ctx context.Context, symbol, timeframe string, limit int) ([]types.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	step, err := Timeframe(timeframe)
	if err != nil {
		step = time.Hour
	}
	if limit <= 0 {
		return nil, nil
	}

	base := BasePrice(symbol)
	rng := rand.New(rand.NewSource(s.Seed))
	end := s.now().Truncate(step)
	start := end.Add(-time.Duration(limit-1) * step)

	bars := make([]types.Bar, limit)
	price := base
	for i := range bars {
		if i > 0 {
			price = math.Max(price*(1+rng.NormFloat64()*stepStdDev), base*syntheticFloor)
		}
		vol := price * intrabarNoise
		open := price + rng.NormFloat64()*vol
		bars[i] = types.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   math.Max(open, price) + rng.Float64()*vol,
			Low:    math.Min(open, price) - rng.Float64()*vol,
			Close:  price,
			Volume: 100 + rng.Float64()*900,
		}
	}
	return bars, nil
}

// Ticker oscillates around the base price with a one-hour sine and a
// small noise term seeded by the current second.
func (s *Synthetic) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	if err := ctx.Err(); err != nil {
		return types.Ticker{}, err
	}
	now := s.now()
	base := BasePrice(symbol)
	secs := float64(now.UnixNano()) / float64(time.Second)
	rng := rand.New(rand.NewSource(now.Unix() % 1000))

	price := base * (1 + math.Sin(secs/3600)*tickerSwing + rng.NormFloat64()*stepStdDev)
	spread := price * tickerSpread
	change := price - base
	return types.Ticker{
		Symbol:     symbol,
		Price:      price,
		Bid:        price - spread/2,
		Ask:        price + spread/2,
		Volume:     1000 + rng.Float64()*9000,
		Change:     change,
		Percentage: change / base * 100,
		Time:       now,
	}, nil
}
