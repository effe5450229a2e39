// Package equities ejecuta un run del trader de momentum sobre acciones:
// reloj de mercado, salidas por P&L no realizado, scan de momentum y como
// mucho una compra por run.
package equities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/arbgate/internal/domain"
	"github.com/alejandrodnm/arbgate/internal/ports"
)

const dryRunOrderID = "dry-run"

// Config contiene los límites del trader de acciones.
type Config struct {
	Watchlist      []string
	ETFs           []string
	Momentum       domain.MomentumParams
	Exits          domain.ExitLimits
	MaxPositions   int
	MaxBuysPerRun  int
	MaxDailyLosses int
	EquityFraction float64         // fracción del equity por compra
	CashBuffer     decimal.Decimal // dólares que nunca se gastan
	MinNotional    decimal.Decimal
	DryRun         bool
}

// DefaultConfig: watchlist de alta volatilidad, SL −3% / TP +6%, 2 posiciones.
func DefaultConfig() Config {
	return Config{
		Watchlist:      []string{"NVDA", "TSLA", "AMD", "META", "PLTR", "SOFI"},
		ETFs:           []string{"SPY", "QQQ"},
		Momentum:       domain.DefaultMomentumParams(),
		Exits:          domain.ExitLimits{StopLoss: -0.03, TakeProfit: 0.06},
		MaxPositions:   2,
		MaxBuysPerRun:  1,
		MaxDailyLosses: 2,
		EquityFraction: 0.5,
		CashBuffer:     decimal.NewFromInt(5),
		MinNotional:    decimal.NewFromInt(10),
	}
}

// Symbols devuelve la watchlist seguida de los ETFs, sin duplicados.
func (c Config) Symbols() []string {
	seen := make(map[string]bool, len(c.Watchlist)+len(c.ETFs))
	var out []string
	for _, s := range append(append([]string{}, c.Watchlist...), c.ETFs...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Trader orquesta un run de acciones.
type Trader struct {
	cfg        Config
	broker     ports.EquityBroker
	strategies []ports.OrderStrategy
	state      ports.StateStore
	runlog     ports.RunLog
	notifier   ports.Notifier
	now        func() time.Time
}

// Option configura dependencias opcionales.
type Option func(*Trader)

// WithStateStore activa el límite de pérdidas diarias.
func WithStateStore(s ports.StateStore) Option { return func(t *Trader) { t.state = s } }

// WithRunLog registra compras, salidas y señales.
func WithRunLog(l ports.RunLog) Option { return func(t *Trader) { t.runlog = l } }

// WithClock fija el reloj (tests).
func WithClock(now func() time.Time) Option { return func(t *Trader) { t.now = now } }

// New crea el trader. strategies se prueban en orden; la primera es la preferida.
func New(cfg Config, broker ports.EquityBroker, strategies []ports.OrderStrategy, notifier ports.Notifier, opts ...Option) *Trader {
	t := &Trader{
		cfg:        cfg,
		broker:     broker,
		strategies: strategies,
		notifier:   notifier,
		now:        time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// RunOnce ejecuta Run y notifica el resumen.
func (t *Trader) RunOnce(ctx context.Context) (domain.RunReport, error) {
	report, err := t.Run(ctx)
	if report.Mode == "" {
		return report, err
	}
	if nerr := t.notifier.NotifyRun(ctx, report); nerr != nil {
		slog.Warn("notifier error", "err", nerr)
	}
	return report, err
}

// Run: reloj → salidas → límites → momentum → compra.
// Con el mercado cerrado no toca la cuenta.
func (t *Trader) Run(ctx context.Context) (domain.RunReport, error) {
	now := t.now()
	report := domain.RunReport{Mode: domain.ModeEquities, At: now}

	clock, err := t.broker.Clock(ctx)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("equities.Run: clock: %w", err)
	}
	if !clock.IsOpen {
		report.Halted = "market closed"
		if !clock.NextOpen.IsZero() {
			report.Halted = fmt.Sprintf("market closed (next open %s)", clock.NextOpen.UTC().Format(time.RFC3339))
		}
		slog.Info("market closed", "next_open", clock.NextOpen)
		return report, nil
	}

	day := domain.NewDailyState(now)
	if t.state != nil {
		st, err := t.state.Load(ctx, now)
		if err != nil {
			slog.Warn("daily state unavailable, starting fresh", "err", err)
		} else {
			day = st
		}
	}

	acct, err := t.broker.Account(ctx)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("equities.Run: account: %w", err)
	}
	positions, err := t.broker.Positions(ctx)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("equities.Run: positions: %w", err)
	}
	report.Cash = acct.Cash
	slog.Info("account loaded", "cash", acct.Cash.StringFixed(2), "equity", acct.Equity.StringFixed(2), "positions", len(positions))

	remaining := t.runExits(ctx, positions, &day, &report)

	owned := make(map[string]bool, len(positions))
	for _, p := range positions {
		owned[p.Symbol] = true
	}
	t.runBuys(ctx, acct, remaining, owned, &day, &report)

	if t.state != nil {
		if err := t.state.Save(ctx, day); err != nil {
			slog.Warn("daily state not saved", "err", err)
		}
	}
	return report, nil
}

// runExits cierra las posiciones que tocan SL/TP y devuelve cuántas siguen abiertas.
func (t *Trader) runExits(ctx context.Context, positions []domain.EquityPosition, day *domain.DailyState, report *domain.RunReport) int {
	bySymbol := make(map[string]domain.EquityPosition, len(positions))
	for _, p := range positions {
		bySymbol[p.Symbol] = p
	}

	remaining := len(positions)
	for _, x := range domain.CheckEquityExits(positions, t.cfg.Exits) {
		slog.Info("exit triggered", "symbol", x.Ticker, "kind", x.Kind, "pnl_pct", x.PnLPct)
		if t.cfg.DryRun {
			report.Exits = append(report.Exits, x)
			remaining--
			continue
		}
		if _, err := t.broker.ClosePosition(ctx, bySymbol[x.Ticker]); err != nil {
			slog.Warn("exit submission failed", "symbol", x.Ticker, "err", err)
			fail := domain.ExitFailure{Ticker: x.Ticker, Kind: x.Kind, Err: err.Error()}
			report.ExitFailures = append(report.ExitFailures, fail)
			t.log(ctx, domain.EventExitFailed, fail)
			continue
		}
		day.RecordExit(x.Ticker, x.Kind)
		report.Exits = append(report.Exits, x)
		remaining--
		t.log(ctx, domain.EventExit, x)
	}
	return remaining
}

// runBuys aplica los límites globales, escanea momentum y compra las mejores
// señales alcistas. Las salidas ya se ejecutaron aunque las compras estén bloqueadas.
func (t *Trader) runBuys(ctx context.Context, acct domain.EquityAccount, open int, owned map[string]bool, day *domain.DailyState, report *domain.RunReport) {
	switch {
	case day.BuysBlocked(t.cfg.MaxDailyLosses):
		report.Halted = fmt.Sprintf("daily loss limit reached (%d/%d)", day.LossCount, t.cfg.MaxDailyLosses)
	case t.cfg.MaxPositions > 0 && open >= t.cfg.MaxPositions:
		report.Halted = fmt.Sprintf("max positions reached (%d/%d), monitoring only", open, t.cfg.MaxPositions)
	case acct.Cash.LessThan(t.cfg.MinNotional):
		report.Halted = fmt.Sprintf("cash too low ($%s < $%s)", acct.Cash.StringFixed(2), t.cfg.MinNotional.StringFixed(2))
	}
	if report.Halted != "" {
		slog.Info("buys blocked", "reason", report.Halted)
		return
	}

	snaps, err := t.broker.Snapshots(ctx, t.cfg.Symbols())
	if err != nil {
		slog.Warn("snapshots unavailable", "err", err)
		report.Halted = "market data unavailable"
		return
	}
	signals := domain.ScanMomentum(snaps, t.cfg.Momentum)
	report.Signals = signals
	t.log(ctx, domain.EventMomentum, signals)
	slog.Info("momentum scan", "symbols", len(snaps), "signals", len(signals))

	var candidates []domain.MomentumSignal
	for _, s := range signals {
		if s.Kind == domain.MomentumUp {
			candidates = append(candidates, s)
		}
	}
	if t.cfg.MaxBuysPerRun > 0 && len(candidates) > t.cfg.MaxBuysPerRun {
		candidates = candidates[:t.cfg.MaxBuysPerRun]
	}

	cash := acct.Cash
	for _, sig := range candidates {
		if owned[sig.Symbol] {
			t.reject(ctx, report, sig.Symbol, "already holding "+sig.Symbol)
			continue
		}
		if t.cfg.MaxPositions > 0 && open >= t.cfg.MaxPositions {
			t.reject(ctx, report, sig.Symbol, "max positions reached")
			break
		}
		budget, ok := domain.NotionalBudget(acct.Equity, cash, t.cfg.EquityFraction, t.cfg.CashBuffer, t.cfg.MinNotional)
		if !ok {
			t.reject(ctx, report, sig.Symbol, fmt.Sprintf("not enough cash (min $%s)", t.cfg.MinNotional.StringFixed(2)))
			continue
		}
		order := domain.EquityOrder{
			Symbol:        sig.Symbol,
			Notional:      budget,
			RefPrice:      decimal.NewFromFloat(sig.Price),
			StopLossPct:   t.cfg.Exits.StopLoss,
			TakeProfitPct: t.cfg.Exits.TakeProfit,
		}

		receipt, strategy := domain.OrderReceipt{OrderID: dryRunOrderID}, ""
		if len(t.strategies) > 0 {
			strategy = t.strategies[0].Name()
		}
		if !t.cfg.DryRun {
			receipt, strategy, err = t.submit(ctx, order)
			if err != nil {
				slog.Warn("buy failed, stopping buys for this run", "symbol", sig.Symbol, "err", err)
				t.reject(ctx, report, sig.Symbol, "order failed: "+err.Error())
				report.Halted = "stopped after a failed order"
				return
			}
			day.RecordBuy(sig.Symbol)
		}

		cash = cash.Sub(budget)
		open++
		owned[sig.Symbol] = true

		trade := domain.Trade{
			RuleName: sig.Symbol,
			Ticker:   sig.Symbol,
			Side:     domain.SideYes,
			Cost:     budget,
			Spread:   sig.ChangePct,
			Strategy: strategy,
			OrderID:  receipt.OrderID,
		}
		report.Trades = append(report.Trades, trade)
		slog.Info("equity buy",
			"symbol", sig.Symbol,
			"notional", budget.StringFixed(2),
			"change_pct", sig.ChangePct,
			"strategy", strategy,
			"dry_run", t.cfg.DryRun,
		)
		t.log(ctx, domain.EventTrade, trade)
	}
}

// submit prueba las estrategias en orden. Solo pasa a la siguiente si la
// actual no soporta la orden o el broker la rechazó; un error de servidor corta.
func (t *Trader) submit(ctx context.Context, order domain.EquityOrder) (domain.OrderReceipt, string, error) {
	if len(t.strategies) == 0 {
		return domain.OrderReceipt{}, "", fmt.Errorf("equities.submit %s: no order strategies configured", order.Symbol)
	}
	var errs []error
	for _, s := range t.strategies {
		receipt, err := s.Submit(ctx, order)
		if err == nil {
			return receipt, s.Name(), nil
		}
		errs = append(errs, err)
		if !errors.Is(err, domain.ErrStrategyUnsupported) && !errors.Is(err, domain.ErrOrderRejected) {
			break
		}
		slog.Info("order strategy declined, trying next", "strategy", s.Name(), "symbol", order.Symbol, "err", err)
	}
	return domain.OrderReceipt{}, "", errors.Join(errs...)
}

func (t *Trader) reject(ctx context.Context, report *domain.RunReport, symbol, reason string) {
	slog.Info("signal rejected", "symbol", symbol, "reason", reason)
	rej := domain.Rejection{RuleName: symbol, Reason: reason}
	report.Rejections = append(report.Rejections, rej)
	t.log(ctx, domain.EventRejection, rej)
}

func (t *Trader) log(ctx context.Context, kind domain.EventKind, payload any) {
	if t.runlog == nil {
		return
	}
	if err := t.runlog.Append(ctx, domain.NewLogEvent(kind, payload, t.now())); err != nil {
		slog.Warn("run log error", "err", err)
	}
}
