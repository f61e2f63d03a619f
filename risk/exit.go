package risk

import (
	"time"

	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/types"
)

// Exit reasons reported by ShouldClose.
const (
	ExitStopLoss   = "stop_loss"
	ExitTakeProfit = "take_profit"
	ExitTimeLimit  = "time_limit"
)

// Exit is the verdict for one open position.
type Exit struct {
	Close      bool    `json:"should_close"`
	Reason     string  `json:"reason,omitempty"`
	PnLPercent float64 `json:"pnl_percent"`
}

// PnLPercent is the signed return of a position, positive when in profit.
func PnLPercent(entry, current float64, side types.Side) float64 {
	if entry == 0 {
		return 0
	}
	if side == types.Sell {
		return (entry - current) / entry
	}
	return (current - entry) / entry
}

// ShouldClose applies stop loss, take profit and the holding time limit,
// in that order, and returns the first that triggers.
func (m *Manager) ShouldClose(entry, current float64, side types.Side, entryTime time.Time, p config.SymbolProfile) Exit {
	pnl := PnLPercent(entry, current, side)
	switch {
	case pnl <= -p.StopLoss:
		return Exit{Close: true, Reason: ExitStopLoss, PnLPercent: pnl}
	case pnl >= p.TakeProfit:
		return Exit{Close: true, Reason: ExitTakeProfit, PnLPercent: pnl}
	case m.limits.MaxHold > 0 && m.now().Sub(entryTime) >= m.limits.MaxHold:
		return Exit{Close: true, Reason: ExitTimeLimit, PnLPercent: pnl}
	}
	return Exit{PnLPercent: pnl}
}

// StopLossPrice is the price at which a position opened at entry hits its
// stop.
func StopLossPrice(entry float64, side types.Side, p config.SymbolProfile) float64 {
	if side == types.Sell {
		return entry * (1 + p.StopLoss)
	}
	return entry * (1 - p.StopLoss)
}

// TakeProfitPrice is the price at which a position opened at entry takes
// profit.
func TakeProfitPrice(entry float64, side types.Side, p config.SymbolProfile) float64 {
	if side == types.Sell {
		return entry * (1 - p.TakeProfit)
	}
	return entry * (1 + p.TakeProfit)
}
