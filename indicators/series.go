// Package indicators computes classic technical indicators over an ordered
// price series. Every function is pure: series outputs have the input's
// length and carry NaN where the look-back window is not yet satisfied.
package indicators

import "math"

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the simple rolling mean over window values.
func SMA(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// EMA is the span-weighted exponential moving average with α = 2/(span+1).
// Weights are normalised from the first value so early outputs are not
// biased towards zero.
func EMA(values []float64, span int) []float64 {
	out := nanSeries(len(values))
	if span <= 0 {
		return out
	}
	decay := 1 - 2.0/float64(span+1)
	num, den := 0.0, 0.0
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// RSI uses simple rolling means of gains and losses over period deltas.
// A window with no losses reads 100 when it has gains and 50 when flat.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSeries(n)
	if period <= 0 || n < period+1 {
		return out
	}
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}
	for i := period; i < n; i++ {
		avgGain, avgLoss := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100
		}
		return 50
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDSeries holds the three MACD lines.
type MACDSeries struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA(fast) - EMA(slow), its signal EMA and the histogram.
// Fewer than slow values yields all-NaN lines.
func MACD(closes []float64, fast, slow, signal int) MACDSeries {
	n := len(closes)
	if n < slow {
		return MACDSeries{MACD: nanSeries(n), Signal: nanSeries(n), Histogram: nanSeries(n)}
	}
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line := make([]float64, n)
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMA(line, signal)
	hist := make([]float64, n)
	for i := range hist {
		hist[i] = line[i] - sig[i]
	}
	return MACDSeries{MACD: line, Signal: sig, Histogram: hist}
}

// BandSeries holds Bollinger band lines.
type BandSeries struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes mean ± k·σ over period, σ being the population
// standard deviation of the window.
func Bollinger(closes []float64, period int, k float64) BandSeries {
	n := len(closes)
	bands := BandSeries{Upper: nanSeries(n), Middle: SMA(closes, period), Lower: nanSeries(n)}
	if period <= 0 || n < period {
		return bands
	}
	for i := period - 1; i < n; i++ {
		mean := bands.Middle[i]
		sq := 0.0
		for _, v := range closes[i-period+1 : i+1] {
			sq += (v - mean) * (v - mean)
		}
		sd := math.Sqrt(sq / float64(period))
		bands.Upper[i] = mean + k*sd
		bands.Lower[i] = mean - k*sd
	}
	return bands
}

// VolumeRatio divides each volume by its rolling mean over window.
func VolumeRatio(volumes []float64, window int) (ma, ratio []float64) {
	ma = SMA(volumes, window)
	ratio = nanSeries(len(volumes))
	for i, m := range ma {
		if !math.IsNaN(m) && m != 0 {
			ratio[i] = volumes[i] / m
		}
	}
	return ma, ratio
}
