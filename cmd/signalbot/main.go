// Command signalbot runs the signal-driven trading loop.
//
//	signalbot --mode web            dashboard, trading toggled from the UI
//	signalbot --mode auto           dashboard plus a loop that trades every cycle
//	signalbot --mode cli            one cycle, printed as tables
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/evdnx/signalbot"
	"github.com/evdnx/signalbot/config"
	"github.com/evdnx/signalbot/logger"
)

func main() {
	mode := flag.String("mode", "web", "run mode: web, auto or cli")
	symbol := flag.String("symbol", "", "symbol to trade (default from SIGNALBOT_DEFAULT_SYMBOL)")
	noTrade := flag.Bool("no-trade", false, "analysis only; never submit orders")
	flag.Parse()

	if err := run(*mode, *symbol, *noTrade); err != nil {
		fmt.Fprintf(os.Stderr, "signalbot: %v\n", err)
		os.Exit(1)
	}
}

func run(mode, symbol string, noTrade bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.NewZapLogger(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	opts := signalbot.Options{Symbol: symbol}
	switch mode {
	case "web":
		// Trading starts disabled and is switched on from the dashboard.
		opts.Interval = cfg.UpdateInterval
	case "auto":
		opts.Interval = cfg.DaemonInterval
		opts.AutoTrade = !noTrade
	case "cli":
		opts.AutoTrade = !noTrade
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	app, err := signalbot.New(cfg, log, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("signalbot_starting",
		logger.String("mode", mode),
		logger.String("symbol", app.Strategy.Symbol()),
		logger.String("data_source", cfg.DataSource),
		logger.String("executor", cfg.Executor),
		logger.Bool("auto_trade", opts.AutoTrade),
		logger.Bool("credentials", cfg.HasCredentials()),
	)

	if mode == "cli" {
		rep, err := app.RunOnce(ctx)
		printReport(os.Stdout, rep)
		printAccount(os.Stdout, app.Strategy.AccountSummary())
		return err
	}
	return app.Serve(ctx, true)
}
