// Package bot drives a strategy on a fixed interval and exposes its state
// to concurrent readers such as the dashboard.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/evdnx/signalbot/logger"
	"github.com/evdnx/signalbot/metrics"
	"github.com/evdnx/signalbot/strategy"
)

// Cycler is the strategy surface the bot drives.
type Cycler interface {
	RunCycle(ctx context.Context) (strategy.Report, error)
	Symbol() string
	SetAnalysisOnly(on bool)
}

// Publisher receives every cycle report.
type Publisher interface {
	Publish(rep strategy.Report)
}

// Status is a snapshot of the loop state.
type Status struct {
	Running   bool      `json:"running"`
	AutoTrade bool      `json:"auto_trade"`
	Symbol    string    `json:"symbol"`
	Cycles    int       `json:"cycles"`
	Errors    int       `json:"errors"`
	LastError string    `json:"last_error,omitempty"`
	LastRun   time.Time `json:"last_run,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Interval  string    `json:"interval"`
}

type Options struct {
	Interval  time.Duration
	Backoff   time.Duration // extra wait after a failed cycle
	AutoTrade bool
	Publisher Publisher
	Log       logger.Logger
}

// Bot runs one cycle per interval from a single goroutine. It is the only
// writer of the strategy state; Status and LastReport may be read at any
// time.
type Bot struct {
	strat    Cycler
	symbol   string
	interval time.Duration
	backoff  time.Duration
	pub      Publisher
	log      logger.Logger

	stopOnce sync.Once
	stop     chan struct{}

	mu     sync.RWMutex
	status Status
	last   *strategy.Report
}

func New(c Cycler, opts Options) *Bot {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}
	b := &Bot{
		strat:    c,
		symbol:   c.Symbol(),
		interval: opts.Interval,
		backoff:  opts.Backoff,
		pub:      opts.Publisher,
		log:      opts.Log,
		stop:     make(chan struct{}),
		status: Status{
			Symbol:   c.Symbol(),
			Interval: opts.Interval.String(),
		},
	}
	b.SetAutoTrade(opts.AutoTrade)
	return b
}

// SetAutoTrade enables or disables order placement. With auto trade off
// cycles still run and report signals.
func (b *Bot) SetAutoTrade(on bool) {
	b.strat.SetAnalysisOnly(!on)
	b.mu.Lock()
	b.status.AutoTrade = on
	b.mu.Unlock()
	b.log.Info("auto_trade", logger.Bool("enabled", on), logger.String("symbol", b.symbol))
}

func (b *Bot) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// LastReport returns the most recent cycle report, if any.
func (b *Bot) LastReport() (strategy.Report, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return strategy.Report{}, false
	}
	return *b.last, true
}

// Stop ends Run after the in-flight cycle. It is safe to call more than
// once.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}

// Run cycles immediately and then once per interval until ctx is done or
// Stop is called. A cycle that fails or panics is logged and followed by
// the backoff wait; it never ends the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.status.Running {
		b.mu.Unlock()
		return errors.New("bot: already running")
	}
	b.status.Running = true
	b.status.StartedAt = time.Now()
	started := b.status.StartedAt
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.status.Running = false
		b.mu.Unlock()
	}()

	b.log.Info("bot_started",
		logger.String("symbol", b.symbol),
		logger.Duration("interval", b.interval),
		logger.Time("started_at", started),
	)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if _, err := b.RunOnce(ctx); err != nil && b.backoff > 0 {
			if !b.wait(ctx, b.backoff) {
				return b.exit(ctx)
			}
		}
		select {
		case <-ctx.Done():
			return b.exit(ctx)
		case <-b.stop:
			return b.exit(ctx)
		case <-ticker.C:
		}
	}
}

func (b *Bot) exit(ctx context.Context) error {
	b.log.Info("bot_stopped", logger.String("symbol", b.symbol))
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// wait sleeps for d and reports false if interrupted.
func (b *Bot) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-b.stop:
		return false
	case <-t.C:
		return true
	}
}

// RunOnce executes a single cycle with panic recovery and records the
// outcome.
func (b *Bot) RunOnce(ctx context.Context) (rep strategy.Report, err error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			err = fmt.Errorf("bot: cycle panic: %v", r)
			rep = strategy.Report{Status: strategy.StatusError, Symbol: b.symbol, Error: err.Error(), Time: start}
		}
		metrics.CyclesTotal.WithLabelValues(outcome).Inc()
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
		b.record(rep, err, start)
	}()

	rep, err = b.strat.RunCycle(ctx)
	if err != nil {
		outcome = "error"
	}
	return rep, err
}

func (b *Bot) record(rep strategy.Report, err error, at time.Time) {
	b.mu.Lock()
	b.status.Cycles++
	b.status.LastRun = at
	if err != nil {
		b.status.Errors++
		b.status.LastError = err.Error()
	} else {
		b.status.LastError = ""
	}
	b.last = &rep
	b.mu.Unlock()

	if err != nil {
		b.log.Error("cycle_failed", logger.String("symbol", b.symbol), logger.Since(at), logger.Err(err))
	}
	if b.pub != nil {
		b.pub.Publish(rep)
	}
}
