package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/evdnx/signalbot/ledger"
	"github.com/evdnx/signalbot/logger"
	"github.com/evdnx/signalbot/metrics"
	"github.com/evdnx/signalbot/types"
)

// errEmptyFill is reported when an executor returns neither an error nor a
// confirmation.
var errEmptyFill = fmt.Errorf("empty fill: %w", types.ErrNotExecuted)

// submitOrder is a thin wrapper that records metrics and logs. Any failure
// is reported as not executed.
func (s *Strategy) submitOrder(ctx context.Context, o types.Order, reason string) (types.Fill, error) {
	fill, err := s.exec.Submit(ctx, o)
	if err == nil && fill.Empty() {
		err = errEmptyFill
	}
	if err != nil {
		s.log.Error("order_submit_failed",
			logger.String("symbol", o.Symbol),
			logger.String("side", string(o.Side)),
			logger.Float64("qty", o.Qty),
			logger.String("reason", reason),
			logger.Err(err),
		)
		metrics.OrdersFailed.WithLabelValues(string(o.Side)).Inc()
		if !errors.Is(err, types.ErrNotExecuted) {
			err = fmt.Errorf("%w: %w", types.ErrNotExecuted, err)
		}
		return types.Fill{}, err
	}
	s.log.Info("order_submitted",
		logger.String("order_id", fill.OrderID),
		logger.String("symbol", o.Symbol),
		logger.String("side", string(o.Side)),
		logger.Float64("qty", fill.Qty),
		logger.Float64("price", fill.Price),
		logger.String("reason", reason),
	)
	metrics.OrdersSubmitted.WithLabelValues(string(o.Side), reason).Inc()
	return fill, nil
}

// openPosition buys qty at price and records the position once the
// executor confirms it.
func (s *Strategy) openPosition(ctx context.Context, side types.Side, qty, price float64, reason string) (ledger.Position, error) {
	o := types.Order{
		Symbol:  s.symbol,
		Side:    side,
		Qty:     qty,
		Price:   price,
		Comment: reason,
	}
	fill, err := s.submitOrder(ctx, o, reason)
	if err != nil {
		return ledger.Position{}, err
	}
	pos := s.ledger.Open(s.symbol, side, fill.Qty, fill.Price, s.now())
	s.log.Info("position_opened",
		logger.String("id", pos.ID),
		logger.String("symbol", pos.Symbol),
		logger.Float64("amount", pos.Amount),
		logger.Float64("entry_price", pos.EntryPrice),
	)
	return pos, nil
}

// closePosition flattens pos at price. The ledger and the risk manager are
// only updated when the executor confirms the closing order.
func (s *Strategy) closePosition(ctx context.Context, pos ledger.Position, price float64, reason string) (ledger.Position, error) {
	o := types.Order{
		Symbol:  pos.Symbol,
		Side:    pos.Side.Opposite(),
		Qty:     pos.Amount,
		Price:   price,
		Comment: reason,
	}
	fill, err := s.submitOrder(ctx, o, reason)
	if err != nil {
		return pos, err
	}
	closed, err := s.ledger.Close(pos.ID, fill.Price, s.now(), reason)
	if err != nil {
		return closed, err
	}
	s.risk.RecordTrade(closed.Profit)
	s.log.Info("position_closed",
		logger.String("id", closed.ID),
		logger.String("symbol", closed.Symbol),
		logger.String("reason", reason),
		logger.Float64("exit_price", closed.ExitPrice),
		logger.Float64("profit", closed.Profit),
	)
	return closed, nil
}
