package risk

import "math"

// Metrics summarises realised performance and balance drawdown.
type Metrics struct {
	TotalTrades  int     `json:"total_trades"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"` // percent
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	TotalProfit  float64 `json:"total_profit"`
}

// ComputeMetrics derives Metrics from the profits of closed trades and a
// sampled balance history. With no losing trades the average loss is taken
// as 1 so the profit factor stays finite.
func ComputeMetrics(profits []float64, balances []float64) Metrics {
	if len(profits) == 0 {
		return Metrics{MaxDrawdown: MaxDrawdown(balances) * 100}
	}
	var wins, losses []float64
	total := 0.0
	for _, p := range profits {
		total += p
		switch {
		case p > 0:
			wins = append(wins, p)
		case p < 0:
			losses = append(losses, p)
		}
	}
	m := Metrics{
		TotalTrades: len(profits),
		WinRate:     float64(len(wins)) / float64(len(profits)) * 100,
		TotalProfit: total,
		AvgLoss:     1,
		MaxDrawdown: MaxDrawdown(balances) * 100,
	}
	if len(wins) > 0 {
		m.AvgWin = mean(wins)
	}
	if len(losses) > 0 {
		m.AvgLoss = math.Abs(mean(losses))
	}
	if m.AvgLoss > 0 {
		m.ProfitFactor = m.AvgWin / m.AvgLoss
	}
	return m
}

// MaxDrawdown is the largest peak-to-trough decline of balances as a
// fraction of the peak.
func MaxDrawdown(balances []float64) float64 {
	if len(balances) == 0 {
		return 0
	}
	peak, maxDD := balances[0], 0.0
	for _, b := range balances {
		if b > peak {
			peak = b
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - b) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
