// Package signalbot assembles the trading loop from its parts: market
// data, executor, ledger, risk manager, strategy, bot loop and dashboard.
//
// A typical embedding looks like:
//
//	cfg, _ := config.Load()
//	app, err := signalbot.New(cfg, log, signalbot.Options{AutoTrade: true})
//	if err != nil { ... }
//	err = app.Serve(ctx, true)
package signalbot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evdnx/signalbot/bot"
	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/dashboard"
	"github.com/evdnx/signalbot/executor"
	"github.com/evdnx/signalbot/ledger"
	"github.com/evdnx/signalbot/logger"
	"github.com/evdnx/signalbot/market"
	"github.com/evdnx/signalbot/risk"
	"github.com/evdnx/signalbot/strategy"
)

const shutdownTimeout = 5 * time.Second

// Options override the collaborators New would otherwise build from the
// config.
type Options struct {
	Symbol    string
	AutoTrade bool
	// Interval defaults to cfg.UpdateInterval.
	Interval time.Duration

	Source   market.DataSource
	Exec     executor.Executor
	Profiles *config.Profiles
	Now      func() time.Time
}

// App is a fully wired bot for one symbol.
type App struct {
	Config   *config.Config
	Log      logger.Logger
	Ledger   *ledger.Ledger
	Risk     *risk.Manager
	Strategy *strategy.Strategy
	Bot      *bot.Bot
	Hub      *dashboard.Hub
	Server   *dashboard.Server
}

// New builds every component. Nothing runs until Serve or RunOnce.
func New(cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("signalbot: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	var err error
	if opts.Profiles == nil {
		if opts.Profiles, err = NewProfiles(cfg); err != nil {
			return nil, err
		}
	}
	if opts.Source == nil {
		if opts.Source, err = NewSource(cfg, log); err != nil {
			return nil, err
		}
	}
	if opts.Exec == nil {
		if opts.Exec, err = NewExecutor(cfg, log); err != nil {
			return nil, err
		}
	}
	if opts.Interval <= 0 {
		opts.Interval = cfg.UpdateInterval
	}

	led := ledger.New()
	riskOpts := []risk.Option{risk.WithPositions(led)}
	if opts.Now != nil {
		riskOpts = append(riskOpts, risk.WithClock(opts.Now))
	}
	rm := risk.NewManager(cfg, riskOpts...)

	strat, err := strategy.New(cfg, opts.Symbol, strategy.Deps{
		Source:   opts.Source,
		Exec:     opts.Exec,
		Ledger:   led,
		Risk:     rm,
		Profiles: opts.Profiles,
		Log:      log,
		Now:      opts.Now,
	})
	if err != nil {
		return nil, err
	}

	hub := dashboard.NewHub(log)
	b := bot.New(strat, bot.Options{
		Interval:  opts.Interval,
		Backoff:   cfg.ErrorBackoff,
		AutoTrade: opts.AutoTrade,
		Publisher: hub,
		Log:       log,
	})
	srv := dashboard.NewServer(dashboard.Config{Host: cfg.WebHost, Port: cfg.WebPort}, b, strat, hub, log)

	return &App{
		Config:   cfg,
		Log:      log,
		Ledger:   led,
		Risk:     rm,
		Strategy: strat,
		Bot:      b,
		Hub:      hub,
		Server:   srv,
	}, nil
}

// NewProfiles loads cfg.ProfilesPath, or the built-in table when unset.
func NewProfiles(cfg *config.Config) (*config.Profiles, error) {
	if cfg.ProfilesPath != "" {
		return config.LoadProfiles(cfg.ProfilesPath, cfg.DefaultProfile())
	}
	return config.DefaultProfiles(cfg.DefaultProfile())
}

// NewSource returns the configured market data source. OKX is always
// backed by the synthetic generator.
func NewSource(cfg *config.Config, log logger.Logger) (market.DataSource, error) {
	switch cfg.DataSource {
	case "okx":
		return market.NewFallback(market.NewOKX(cfg.OKXBaseURL), market.NewSynthetic(), log), nil
	case "synthetic":
		return market.NewSynthetic(), nil
	default:
		return nil, fmt.Errorf("signalbot: unknown data source %q", cfg.DataSource)
	}
}

// NewExecutor returns the configured order executor.
func NewExecutor(cfg *config.Config, log logger.Logger) (executor.Executor, error) {
	switch cfg.Executor {
	case "paper":
		return executor.NewPaperExecutor(cfg.PaperBalance, log), nil
	case "none":
		return executor.NopExecutor{}, nil
	default:
		return nil, fmt.Errorf("signalbot: unknown executor %q", cfg.Executor)
	}
}

// RunOnce runs a single cycle through the bot so the result is recorded
// and published.
func (a *App) RunOnce(ctx context.Context) (strategy.Report, error) {
	return a.Bot.RunOnce(ctx)
}

// Serve runs the bot loop, the websocket hub and, when web is true, the
// HTTP dashboard until ctx is cancelled. A clean shutdown returns nil.
func (a *App) Serve(ctx context.Context, web bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ignoreCanceled(a.Hub.Run(gctx)) })
	g.Go(func() error {
		// A stopped bot takes the hub and server down with it.
		defer cancel()
		return a.Bot.Run(gctx)
	})

	if web {
		g.Go(a.Server.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.Server.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	a.Log.Info("signalbot_stopped", logger.Int("cycles", a.Bot.Status().Cycles))
	return ignoreCanceled(err)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
