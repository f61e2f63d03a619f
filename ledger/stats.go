package ledger

// Performance summarises closed positions.
type Performance struct {
	TotalTrades   int     `json:"total_trades"`
	WinRate       float64 `json:"win_rate"` // percent
	TotalProfit   float64 `json:"total_profit"`
	AvgProfit     float64 `json:"avg_profit"`
	MaxProfit     float64 `json:"max_profit"`
	MaxLoss       float64 `json:"max_loss"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
}

// Performance computes win rate and profit extremes over closed positions.
func (l *Ledger) Performance() Performance {
	closed := l.ClosedPositions()
	if len(closed) == 0 {
		return Performance{}
	}
	perf := Performance{
		TotalTrades: len(closed),
		MaxProfit:   closed[0].Profit,
		MaxLoss:     closed[0].Profit,
	}
	for _, p := range closed {
		perf.TotalProfit += p.Profit
		if p.Profit > 0 {
			perf.WinningTrades++
		}
		if p.Profit > perf.MaxProfit {
			perf.MaxProfit = p.Profit
		}
		if p.Profit < perf.MaxLoss {
			perf.MaxLoss = p.Profit
		}
	}
	perf.LosingTrades = perf.TotalTrades - perf.WinningTrades
	perf.WinRate = float64(perf.WinningTrades) / float64(perf.TotalTrades) * 100
	perf.AvgProfit = perf.TotalProfit / float64(perf.TotalTrades)
	return perf
}
