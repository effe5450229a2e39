package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/arbgate/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file (empty: defaults + env)")
	mode := flag.String("mode", "scan", "scan | tiers | trade | equities | history")
	watch := flag.Duration("watch", 0, "repeat every interval until interrupted (0: run once)")
	dryRun := flag.Bool("dry-run", false, "evaluate and report, but place no orders")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	since := flag.Duration("since", 7*24*time.Hour, "history mode: opportunities seen within this window")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(*mode); err != nil {
		slog.Error("invalid configuration", "err", err, "mode", *mode)
		os.Exit(1)
	}

	slog.Info("arbgate starting",
		"config", *configPath,
		"mode", *mode,
		"watch", *watch,
		"dry_run", *dryRun,
	)

	app, err := build(cfg, *mode, *dryRun, *since)
	if err != nil {
		slog.Error("failed to initialize", "err", err, "mode", *mode)
		os.Exit(1)
	}
	defer app.close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *watch <= 0 {
		if err := app.run(ctx); err != nil {
			slog.Error("run failed", "err", err, "mode", *mode)
			app.close()
			os.Exit(1)
		}
		return
	}

	watchLoop(ctx, *watch, app.run)
	slog.Info("arbgate stopped cleanly")
}

// watchLoop ejecuta run de inmediato y luego cada interval. Un run fallido no
// detiene el loop.
func watchLoop(ctx context.Context, interval time.Duration, run func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("run failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
