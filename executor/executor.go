package executor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evdnx/signalbot/logger"
	"github.com/evdnx/signalbot/types"
)

// Executor places orders and reports the quote-currency balance.
// A nil error always comes with a non-empty Fill.
type Executor interface {
	Submit(ctx context.Context, o types.Order) (types.Fill, error)
	Balance(ctx context.Context) (float64, error)
}

// holdingsEpsilon absorbs float drift when selling a full holding.
const holdingsEpsilon = 1e-9

// PaperExecutor is a simulated spot account: perfect fills at the order
// price, no fees, no slippage.
type PaperExecutor struct {
	mu       sync.RWMutex
	cash     float64
	holdings map[string]float64 // base units per symbol
	log      logger.Logger
	now      func() time.Time
}

func NewPaperExecutor(startCash float64, log logger.Logger) *PaperExecutor {
	if log == nil {
		log = logger.NewNop()
	}
	return &PaperExecutor{
		cash:     startCash,
		holdings: make(map[string]float64),
		log:      log,
		now:      time.Now,
	}
}

func (p *PaperExecutor) Submit(ctx context.Context, o types.Order) (types.Fill, error) {
	if err := ctx.Err(); err != nil {
		return types.Fill{}, err
	}
	if !o.Side.Valid() || !positive(o.Qty) || !positive(o.Price) {
		return types.Fill{}, fmt.Errorf("paper: invalid order %+v: %w", o, types.ErrNotExecuted)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cost := o.Price * o.Qty
	switch o.Side {
	case types.Buy:
		if cost > p.cash {
			return types.Fill{}, fmt.Errorf("paper: insufficient cash %.2f < %.2f: %w", p.cash, cost, types.ErrNotExecuted)
		}
		p.cash -= cost
		p.holdings[o.Symbol] += o.Qty
	case types.Sell:
		held := p.holdings[o.Symbol]
		if o.Qty > held+holdingsEpsilon {
			return types.Fill{}, fmt.Errorf("paper: insufficient %s holdings %.8f < %.8f: %w", o.Symbol, held, o.Qty, types.ErrNotExecuted)
		}
		p.cash += cost
		p.holdings[o.Symbol] = math.Max(held-o.Qty, 0)
	}

	fill := types.Fill{
		OrderID: uuid.NewString(),
		Symbol:  o.Symbol,
		Side:    o.Side,
		Qty:     o.Qty,
		Price:   o.Price,
		Time:    p.now(),
	}
	p.log.Debug("paper_fill",
		logger.String("order_id", fill.OrderID),
		logger.String("symbol", o.Symbol),
		logger.String("side", string(o.Side)),
		logger.Float64("qty", o.Qty),
		logger.Float64("price", o.Price),
		logger.Float64("cash", p.cash),
	)
	return fill, nil
}

// positive is false for NaN and infinities.
func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// Balance returns the free quote cash.
func (p *PaperExecutor) Balance(ctx context.Context) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash, nil
}

// Holding returns the base units held for symbol.
func (p *PaperExecutor) Holding(symbol string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.holdings[symbol]
}

// NopExecutor stands in when no exchange credentials are configured.
// It never trades and reports a zero balance.
type NopExecutor struct{}

func (NopExecutor) Submit(context.Context, types.Order) (types.Fill, error) {
	return types.Fill{}, fmt.Errorf("executor: %w", types.ErrNotConfigured)
}

func (NopExecutor) Balance(context.Context) (float64, error) {
	return 0, fmt.Errorf("executor: %w", types.ErrNotConfigured)
}
