// Package ledger records simulated positions and their realized P&L.
package ledger

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evdnx/signalbot/types"
)

type Status string

const (
	Open   Status = "open"
	Closed Status = "closed"
)

// Position is a single simulated trade. Exit fields and Profit are only
// meaningful once Status is Closed.
type Position struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Side       types.Side `json:"side"`
	Amount     float64    `json:"amount"`
	EntryPrice float64    `json:"entry_price"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitPrice  float64    `json:"exit_price,omitempty"`
	ExitTime   time.Time  `json:"exit_time,omitempty"`
	Profit     float64    `json:"profit"`
	Status     Status     `json:"status"`
	ExitReason string     `json:"exit_reason,omitempty"`
}

// IsOpen reports whether the position still carries exposure.
func (p Position) IsOpen() bool { return p.Status == Open }

// profit computes (exit-entry)*amount for longs and the mirror for shorts.
func profit(side types.Side, entry, exit, amount float64) float64 {
	diff := decimal.NewFromFloat(exit).Sub(decimal.NewFromFloat(entry))
	if side == types.Sell {
		diff = diff.Neg()
	}
	return diff.Mul(decimal.NewFromFloat(amount)).InexactFloat64()
}

// Ledger owns every position. Positions are never deleted. The ledger is
// safe for one writer plus concurrent readers.
type Ledger struct {
	mu        sync.RWMutex
	positions []*Position
	byID      map[string]*Position
}

func New() *Ledger {
	return &Ledger{byID: make(map[string]*Position)}
}

// Open records a new open position and returns a copy of it.
func (l *Ledger) Open(symbol string, side types.Side, amount, price float64, at time.Time) Position {
	p := &Position{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       side,
		Amount:     amount,
		EntryPrice: price,
		EntryTime:  at,
		Status:     Open,
	}
	l.mu.Lock()
	l.positions = append(l.positions, p)
	l.byID[p.ID] = p
	l.mu.Unlock()
	return *p
}

// Close settles the position with id at exitPrice. Closing an already
// closed position returns ErrPositionClosed and leaves it untouched.
func (l *Ledger) Close(id string, exitPrice float64, at time.Time, reason string) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.byID[id]
	if !ok {
		return Position{}, fmt.Errorf("ledger: position %s not found", id)
	}
	if p.Status == Closed {
		return *p, fmt.Errorf("ledger: %s: %w", id, types.ErrPositionClosed)
	}
	if math.IsNaN(exitPrice) || math.IsInf(exitPrice, 0) {
		return *p, fmt.Errorf("ledger: %s: non-finite exit price %v", id, exitPrice)
	}
	pnl := profit(p.Side, p.EntryPrice, exitPrice, p.Amount)
	p.ExitPrice = exitPrice
	p.ExitTime = at
	p.ExitReason = reason
	p.Profit = pnl
	p.Status = Closed
	return *p, nil
}

// Get returns a copy of the position with id.
func (l *Ledger) Get(id string) (Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.byID[id]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

func (l *Ledger) filter(keep func(*Position) bool) []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Position
	for _, p := range l.positions {
		if keep(p) {
			out = append(out, *p)
		}
	}
	return out
}

// OpenPositions returns open positions for symbol and side. An empty
// symbol or side matches any.
func (l *Ledger) OpenPositions(symbol string, side types.Side) []Position {
	return l.filter(func(p *Position) bool {
		return p.Status == Open &&
			(symbol == "" || p.Symbol == symbol) &&
			(side == "" || p.Side == side)
	})
}

// ClosedPositions returns every closed position in opening order.
func (l *Ledger) ClosedPositions() []Position {
	return l.filter(func(p *Position) bool { return p.Status == Closed })
}

// All returns every position in opening order.
func (l *Ledger) All() []Position {
	return l.filter(func(*Position) bool { return true })
}

// OpenCount is the number of open positions across all symbols.
func (l *Ledger) OpenCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, p := range l.positions {
		if p.Status == Open {
			n++
		}
	}
	return n
}

// RealizedPnL sums the profit of closed positions.
func (l *Ledger) RealizedPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := decimal.Zero
	for _, p := range l.positions {
		if p.Status == Closed {
			total = total.Add(decimal.NewFromFloat(p.Profit))
		}
	}
	return total.InexactFloat64()
}

// TradeCount is the number of positions ever opened.
func (l *Ledger) TradeCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}
