package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/arbgate/config"
	"github.com/alejandrodnm/arbgate/internal/adapters/alpaca"
	"github.com/alejandrodnm/arbgate/internal/adapters/fred"
	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/adapters/kalshi"
	"github.com/alejandrodnm/arbgate/internal/adapters/notify"
	"github.com/alejandrodnm/arbgate/internal/adapters/oddsapi"
	"github.com/alejandrodnm/arbgate/internal/adapters/polymarket"
	"github.com/alejandrodnm/arbgate/internal/adapters/predictit"
	"github.com/alejandrodnm/arbgate/internal/adapters/storage"
	"github.com/alejandrodnm/arbgate/internal/application/equities"
	"github.com/alejandrodnm/arbgate/internal/application/scanner"
	"github.com/alejandrodnm/arbgate/internal/application/trader"
	"github.com/alejandrodnm/arbgate/internal/domain"
	"github.com/alejandrodnm/arbgate/internal/ports"
)

const (
	httpBurst          = 5
	telegramRetryDelay = 2 * time.Second
)

// app es un modo ya cableado.
type app struct {
	run     func(ctx context.Context) error
	closers []func() error
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("close error", "err", err)
		}
	}
	a.closers = nil
}

// build construye las dependencias del modo. since acota el modo history.
func build(cfg *config.Config, mode string, dryRun bool, since time.Duration) (*app, error) {
	h := httpx.New(cfg.Timeout(), httpx.WithRate(cfg.API.RatePerSecond, httpBurst))
	notifier := newNotifier(cfg)
	a := &app{}

	runlog, err := storage.NewJSONLRunLog(cfg.Storage.RunLogPath)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	switch mode {
	case "scan", "tiers":
		k, err := newKalshi(cfg, h, false)
		if err != nil {
			return nil, err
		}
		var opts []scanner.Option
		opts = append(opts, scanner.WithRunLog(runlog))
		if mode == "scan" {
			ledger, err := storage.NewSQLiteLedger(cfg.Storage.LedgerPath)
			if err != nil {
				return nil, fmt.Errorf("build: %w", err)
			}
			a.closers = append(a.closers, ledger.Close)
			opts = append(opts, scanner.WithStore(ledger))
		}
		s := newScanner(cfg, h, k, notifier, opts...)
		if mode == "tiers" {
			a.run = func(ctx context.Context) error {
				_, err := s.RunTiers(ctx)
				return err
			}
		} else {
			a.run = func(ctx context.Context) error {
				_, err := s.RunOnce(ctx)
				return err
			}
		}

	case "history":
		ledger, err := storage.NewSQLiteLedger(cfg.Storage.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		a.closers = append(a.closers, ledger.Close)
		console := notify.NewConsole()
		a.run = func(ctx context.Context) error {
			rows, err := ledger.History(ctx, time.Now().Add(-since))
			if err != nil {
				return err
			}
			return console.PrintHistory(rows)
		}

	case domain.ModeTrade:
		k, err := newKalshi(cfg, h, true)
		if err != nil {
			return nil, err
		}
		ledger, err := storage.NewSQLiteLedger(cfg.Storage.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		a.closers = append(a.closers, ledger.Close)

		s := newScanner(cfg, h, k, notifier, scanner.WithStore(ledger), scanner.WithRunLog(runlog))
		tcfg := trader.Config{
			Risk:           cfg.RiskLimits(),
			Sizing:         cfg.SizingLimits(),
			Exits:          cfg.ExitLimits(),
			MaxDailyLosses: cfg.Risk.MaxDailyLosses,
			DryRun:         dryRun,
		}
		t := trader.New(tcfg, k, ledger, s, notifier,
			trader.WithStateStore(storage.NewJSONStateStore(cfg.Storage.TradeStatePath)),
			trader.WithRunLog(runlog),
		)
		a.run = func(ctx context.Context) error {
			_, err := t.RunOnce(ctx)
			return err
		}

	case domain.ModeEquities:
		c := alpaca.NewClient(h, cfg.API.AlpacaBase, cfg.API.AlpacaDataURL, cfg.API.AlpacaKeyID, cfg.API.AlpacaSecret)
		m := cfg.Momentum
		ecfg := equities.Config{
			Watchlist:      m.Watchlist,
			ETFs:           m.ETFs,
			Momentum:       cfg.MomentumParams(),
			Exits:          cfg.EquityExitLimits(),
			MaxPositions:   m.MaxPositions,
			MaxBuysPerRun:  m.MaxBuysPerRun,
			MaxDailyLosses: m.MaxDailyLosses,
			EquityFraction: m.EquityFraction,
			CashBuffer:     decimal.NewFromFloat(m.CashBuffer),
			MinNotional:    decimal.NewFromFloat(m.MinNotional),
			DryRun:         dryRun,
		}
		t := equities.New(ecfg, c, []ports.OrderStrategy{c.Bracket(), c.Simple()}, notifier,
			equities.WithStateStore(storage.NewJSONStateStore(cfg.Storage.EquitiesStatePath)),
			equities.WithRunLog(runlog),
		)
		a.run = func(ctx context.Context) error {
			_, err := t.RunOnce(ctx)
			return err
		}

	default:
		return nil, fmt.Errorf("build: unknown mode %q", mode)
	}
	return a, nil
}

func newKalshi(cfg *config.Config, h *httpx.Client, withCredentials bool) (*kalshi.Client, error) {
	opts := []kalshi.Option{kalshi.WithFilters(cfg.Scan.KalshiMinVolume, cfg.Scan.KalshiMaxDays)}
	if withCredentials {
		key, err := kalshi.LoadPrivateKey(cfg.API.KalshiPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
		opts = append(opts, kalshi.WithCredentials(cfg.API.KalshiKeyID, key))
	}
	return kalshi.NewClient(h, cfg.API.KalshiBase, opts...), nil
}

func newScanner(cfg *config.Config, h *httpx.Client, k *kalshi.Client, n ports.Notifier, opts ...scanner.Option) *scanner.Scanner {
	src := scanner.Sources{
		Primary: k,
		Externals: []ports.Source{
			polymarket.NewClient(h, cfg.API.GammaBase),
			predictit.NewClient(h, cfg.API.PredictItBase),
			oddsapi.NewClient(h, cfg.API.OddsBase, cfg.API.OddsAPIKey),
		},
	}
	if !cfg.Model.Disabled {
		src.Series = fred.NewClient(h, cfg.API.FREDBase, cfg.API.FREDAPIKey, cfg.Model.Series, cfg.Model.Observations)
	}

	scfg := scanner.DefaultConfig()
	scfg.Eval = cfg.EvalParams()
	scfg.Policy = cfg.ExternalPolicy()
	scfg.Thresholds = cfg.Model.Thresholds
	scfg.Weights = cfg.Weights()
	scfg.Tiers = cfg.TierParams()
	return scanner.New(scfg, src, n, opts...)
}

// newNotifier devuelve la consola, con alertas de Telegram si hay credenciales.
// Un bot inválido no impide arrancar.
func newNotifier(cfg *config.Config) ports.Notifier {
	console := notify.NewConsole()
	if !cfg.TelegramEnabled() {
		return console
	}
	tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		notify.WithRetries(cfg.Telegram.MaxRetries, telegramRetryDelay))
	if err != nil {
		slog.Warn("telegram disabled", "err", err)
		return console
	}
	return notify.NewAlerting(console, tg)
}
