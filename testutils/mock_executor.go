package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/evdnx/signalbot/types"
)

// MockExecutor implements executor.Executor in-memory. It fills every
// order at the order price unless Reject is set, and records what it saw.
type MockExecutor struct {
	mu      sync.RWMutex
	balance float64
	// Reject makes Submit return an empty fill and ErrNotExecuted.
	reject     bool
	emptyFill  bool
	balanceErr error
	orders     []types.Order // every submitted order, filled or not
	fills      []types.Fill
	seq        int
}

// NewMockExecutor creates a fresh executor with the supplied cash balance.
func NewMockExecutor(balance float64) *MockExecutor {
	return &MockExecutor{balance: balance}
}

// SetReject toggles rejection of every subsequent order.
func (m *MockExecutor) SetReject(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reject = reject
}

// SetEmptyFill makes Submit return a zero Fill and a nil error, as an
// executor that silently drops the order would.
func (m *MockExecutor) SetEmptyFill(empty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emptyFill = empty
}

// SetBalanceError makes Balance fail with err.
func (m *MockExecutor) SetBalanceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceErr = err
}

// Submit records the order and adjusts the cash balance.
func (m *MockExecutor) Submit(_ context.Context, o types.Order) (types.Fill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = append(m.orders, o)
	if m.reject {
		return types.Fill{}, fmt.Errorf("mock: rejected: %w", types.ErrNotExecuted)
	}
	if m.emptyFill {
		return types.Fill{}, nil
	}
	cost := o.Price * o.Qty
	if o.Side == types.Buy {
		m.balance -= cost
	} else {
		m.balance += cost
	}
	m.seq++
	f := types.Fill{
		OrderID: fmt.Sprintf("mock-%d", m.seq),
		Symbol:  o.Symbol,
		Side:    o.Side,
		Qty:     o.Qty,
		Price:   o.Price,
		Time:    time.Unix(0, 0).UTC(),
	}
	m.fills = append(m.fills, f)
	return f, nil
}

// Balance returns the current cash balance.
func (m *MockExecutor) Balance(context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.balanceErr != nil {
		return 0, m.balanceErr
	}
	return m.balance, nil
}

// Orders returns a copy of all submitted orders (useful for assertions).
func (m *MockExecutor) Orders() []types.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

// Fills returns a copy of all confirmed fills.
func (m *MockExecutor) Fills() []types.Fill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Fill, len(m.fills))
	copy(out, m.fills)
	return out
}
