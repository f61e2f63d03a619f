package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_cycles_total",
			Help: "Strategy cycles run, by outcome (ok, error, panic).",
		},
		[]string{"outcome"},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signalbot_cycle_duration_seconds",
			Help:    "Wall time of one strategy cycle.",
			Buckets: prometheus.DefBuckets,
		},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_orders_submitted_total",
			Help: "Total number of orders confirmed by the executor (by side and reason).",
		},
		[]string{"side", "reason"},
	)

	OrdersFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_orders_failed_total",
			Help: "Orders the executor did not confirm.",
		},
		[]string{"side"},
	)

	Signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_signals_total",
			Help: "Buy and sell signals emitted, by symbol.",
		},
		[]string{"symbol", "side"},
	)

	RiskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_risk_rejections_total",
			Help: "Trades suppressed by a failed risk check.",
		},
		[]string{"check"},
	)

	DataFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_data_fallbacks_total",
			Help: "Market data calls served by the synthetic source.",
		},
		[]string{"kind"},
	)

	PositionsOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signalbot_positions_open",
			Help: "Current number of open positions per symbol.",
		},
		[]string{"symbol"},
	)

	BalanceGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalbot_balance",
			Help: "Quote balance reported by the executor.",
		},
	)

	RealizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalbot_realized_pnl",
			Help: "Sum of profit over closed positions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CyclesTotal, CycleDuration,
		OrdersSubmitted, OrdersFailed,
		Signals, RiskRejections, DataFallbacks,
		PositionsOpen, BalanceGauge, RealizedPnL,
	)
}
