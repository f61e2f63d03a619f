package strategy

import (
	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/indicators"
	"github.com/evdnx/signalbot/types"
)

// Signal reasons.
const (
	ReasonTrend      = "trend"
	ReasonOversold   = "rsi_oversold"
	ReasonOverbought = "rsi_overbought"
)

// Proximity bands around the short moving average within which a trend
// signal is still taken.
const (
	buyProximity  = 1.02
	sellProximity = 0.98
)

// Decision is the signal pair for one cycle. Buy and Sell are never both
// true.
type Decision struct {
	Buy      bool     `json:"buy"`
	Sell     bool     `json:"sell"`
	Reason   string   `json:"reason,omitempty"`
	Analysis Analysis `json:"analysis"`
}

// Side returns the side to act on, or "" when there is no signal.
func (d Decision) Side() types.Side {
	switch {
	case d.Buy:
		return types.Buy
	case d.Sell:
		return types.Sell
	}
	return ""
}

// Generate turns an analysis into buy and sell signals. RSI extremes
// override the trend conditions and clear the opposite signal.
func Generate(a Analysis, p config.SymbolProfile) Decision {
	th := p.Volatility.StrengthThreshold()
	a.Volatility = p.Volatility
	a.RSIOversold = p.RSIOversold
	a.RSIOverbought = p.RSIOverbought
	a.StrengthThreshold = th

	d := Decision{Analysis: a}
	if a.Trend == InsufficientData {
		return d
	}

	if a.Trend == Bullish && a.Strength > th && a.RSI < p.RSIOverbought && a.Price < a.MAShort*buyProximity {
		d.Buy, d.Reason = true, ReasonTrend
	}
	if a.Trend == Bearish && a.Strength > th && a.RSI > p.RSIOversold && a.Price > a.MAShort*sellProximity {
		d.Sell, d.Reason = true, ReasonTrend
	}

	switch {
	case a.RSI < p.RSIOversold:
		d.Buy, d.Sell, d.Reason = true, false, ReasonOversold
	case a.RSI > p.RSIOverbought:
		d.Buy, d.Sell, d.Reason = false, true, ReasonOverbought
	}
	return d
}

// Evaluate runs the indicator engine, the classifier and the signal
// generator over bars.
func Evaluate(bars []types.Bar, periods config.Periods, p config.SymbolProfile) Decision {
	snap := indicators.Compute(bars, periods)
	return Generate(Classify(snap, p), p)
}
