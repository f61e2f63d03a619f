package strategy

import (
	"math"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/indicators"
)

// Trend is the direction the indicator votes agree on.
type Trend string

const (
	Bullish          Trend = "bullish"
	Bearish          Trend = "bearish"
	Neutral          Trend = "neutral"
	InsufficientData Trend = "insufficient_data"
)

// MinTrendBars is the history the classifier needs before it votes.
const MinTrendBars = 50

// tieTolerance is the relative distance under which two readings are
// treated as equal and the vote abstains.
const tieTolerance = 1e-9

// Analysis is the classifier output, enriched by Generate with the
// thresholds the signal was judged against.
type Analysis struct {
	Trend        Trend   `json:"trend"`
	Strength     float64 `json:"strength"`
	RSI          float64 `json:"rsi"`
	MACD         float64 `json:"macd"`
	Signal       float64 `json:"signal"`
	MAShort      float64 `json:"ma_short"`
	MALong       float64 `json:"ma_long"`
	Price        float64 `json:"price"`
	BullishVotes int     `json:"bullish_signals"`
	BearishVotes int     `json:"bearish_signals"`

	Volatility        config.VolatilityTier `json:"volatility,omitempty"`
	RSIOversold       float64               `json:"rsi_oversold,omitempty"`
	RSIOverbought     float64               `json:"rsi_overbought,omitempty"`
	StrengthThreshold float64               `json:"strength_threshold,omitempty"`

	Indicators indicators.Snapshot `json:"indicators"`
}

func tie(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tieTolerance*scale
}

// Classify tallies four votes over the latest snapshot. Undefined
// readings fall back to neutral values: RSI 50, MACD and signal 0, moving
// averages the close.
func Classify(snap indicators.Snapshot, p config.SymbolProfile) Analysis {
	if snap.Bars < MinTrendBars {
		return Analysis{Trend: InsufficientData, Price: snap.Close, Indicators: snap}
	}

	price := snap.Close
	a := Analysis{
		RSI:        snap.RSI.Or(50),
		MACD:       snap.MACD.Or(0),
		Signal:     snap.Signal.Or(0),
		MAShort:    snap.MAShort.Or(price),
		MALong:     snap.MALong.Or(price),
		Price:      price,
		Indicators: snap,
	}

	switch {
	case a.RSI < p.RSIOversold:
		a.BullishVotes += 2
	case a.RSI > p.RSIOverbought:
		a.BearishVotes += 2
	case tie(a.RSI, 50):
	case a.RSI > 50:
		a.BullishVotes++
	default:
		a.BearishVotes++
	}
	a.vote(a.MACD, a.Signal)
	a.vote(a.MAShort, a.MALong)
	a.vote(price, a.MAShort)

	total := a.BullishVotes + a.BearishVotes
	if total > 0 {
		a.Strength = math.Abs(float64(a.BullishVotes-a.BearishVotes)) / float64(total)
	}
	switch {
	case a.BullishVotes > a.BearishVotes:
		a.Trend = Bullish
	case a.BearishVotes > a.BullishVotes:
		a.Trend = Bearish
	default:
		a.Trend = Neutral
	}
	return a
}

// vote adds one bullish vote when x is above ref, one bearish vote when
// below, and nothing on a tie.
func (a *Analysis) vote(x, ref float64) {
	switch {
	case tie(x, ref):
	case x > ref:
		a.BullishVotes++
	default:
		a.BearishVotes++
	}
}
