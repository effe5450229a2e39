// Package trader ejecuta un run del auto-trader de Kalshi: salidas de las
// posiciones abiertas, scan de oportunidades y compras dentro del risk gate.
package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/arbgate/internal/application/scanner"
	"github.com/alejandrodnm/arbgate/internal/domain"
	"github.com/alejandrodnm/arbgate/internal/ports"
)

// dryRunOrderID marca las órdenes que no se enviaron.
const dryRunOrderID = "dry-run"

// fallbackContractValue es el valor estimado por contrato cuando el broker no
// reporta exposición.
const fallbackContractValue = 50

// Config contiene los límites del trader.
type Config struct {
	Risk           domain.RiskLimits
	Sizing         domain.SizingLimits
	Exits          domain.ExitLimits
	MaxDailyLosses int // 0 = sin límite
	DryRun         bool
}

// DefaultConfig devuelve los límites para una cuenta de $100.
func DefaultConfig() Config {
	return Config{
		Risk:   domain.DefaultRiskLimits(),
		Sizing: domain.DefaultSizingLimits(),
		Exits:  domain.DefaultExitLimits(),
	}
}

// OpportunityScanner es lo que el trader necesita del scanner.
type OpportunityScanner interface {
	Scan(ctx context.Context) (scanner.Result, error)
}

// Trader orquesta un run completo.
type Trader struct {
	cfg      Config
	broker   ports.Broker
	ledger   ports.PositionLedger
	scanner  OpportunityScanner
	state    ports.StateStore
	runlog   ports.RunLog
	notifier ports.Notifier
	now      func() time.Time
}

// Option configura dependencias opcionales.
type Option func(*Trader)

// WithStateStore activa el límite de pérdidas diarias.
func WithStateStore(s ports.StateStore) Option { return func(t *Trader) { t.state = s } }

// WithRunLog registra trades, salidas y rechazos.
func WithRunLog(l ports.RunLog) Option { return func(t *Trader) { t.runlog = l } }

// WithClock fija el reloj (tests).
func WithClock(now func() time.Time) Option { return func(t *Trader) { t.now = now } }

// New crea un Trader con las dependencias obligatorias.
func New(cfg Config, broker ports.Broker, ledger ports.PositionLedger, sc OpportunityScanner, notifier ports.Notifier, opts ...Option) *Trader {
	t := &Trader{
		cfg:      cfg,
		broker:   broker,
		ledger:   ledger,
		scanner:  sc,
		notifier: notifier,
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// portfolio es la vista de la cuenta que se va actualizando durante el run.
type portfolio struct {
	cash  int64
	open  int
	value int64
	held  map[string]bool
}

func newPortfolio(acct domain.Account, holdings []domain.Holding) *portfolio {
	p := &portfolio{cash: acct.CashCents, held: make(map[string]bool)}
	for _, h := range holdings {
		if h.Count == 0 {
			continue
		}
		p.open++
		p.held[h.Ticker] = true
		if h.ExposureCents > 0 {
			p.value += h.ExposureCents
		} else {
			p.value += abs(h.Count) * fallbackContractValue
		}
	}
	return p
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

// Run: cuenta → salidas → límites globales → scan → compras en orden de spread.
// Se detiene tras la primera compra fallida.
func (t *Trader) Run(ctx context.Context) (domain.RunReport, error) {
	now := t.now()

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
		return domain.RunReport{}, fmt.Errorf("trader.Run: account: %w", err)
	}
	holdings, err := t.broker.Positions(ctx)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("trader.Run: positions: %w", err)
	}

	pf := newPortfolio(acct, holdings)
	report := domain.RunReport{Mode: domain.ModeTrade, At: now}

	slog.Info("account loaded", "cash_cents", pf.cash, "positions", pf.open, "position_value_cents", pf.value)

	t.runExits(ctx, holdings, pf, &day, &report)

	scanErr := t.runBuys(ctx, pf, &day, &report)

	report.Cash = domain.CentsToDollars(pf.cash)
	if t.state != nil {
		if err := t.state.Save(ctx, day); err != nil {
			slog.Warn("daily state not saved", "err", err)
		}
	}
	if scanErr != nil {
		return report, fmt.Errorf("trader.Run: %w", scanErr)
	}
	return report, nil
}

// runBuys aplica los límites globales, escanea y compra. Solo devuelve error si
// el scan falla.
func (t *Trader) runBuys(ctx context.Context, pf *portfolio, day *domain.DailyState, report *domain.RunReport) error {
	if day.BuysBlocked(t.cfg.MaxDailyLosses) {
		report.Halted = fmt.Sprintf("daily loss limit reached (%d/%d)", day.LossCount, t.cfg.MaxDailyLosses)
		slog.Info("buys blocked", "reason", report.Halted)
		return nil
	}
	if pf.cash < t.cfg.Risk.MinCashCents {
		report.Halted = fmt.Sprintf("cash too low ($%s < $%s)",
			domain.CentsToDollars(pf.cash).StringFixed(2), domain.CentsToDollars(t.cfg.Risk.MinCashCents).StringFixed(2))
		slog.Info("buys blocked", "reason", report.Halted)
		return nil
	}

	res, err := t.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if len(res.Opportunities) == 0 {
		slog.Info("no opportunities found")
		return nil
	}

	for _, opp := range res.Opportunities {
		if err := ctx.Err(); err != nil {
			return err
		}

		dec := domain.EvaluateRisk(opp,
			domain.AccountState{CashCents: pf.cash},
			domain.PortfolioState{OpenPositions: pf.open, PositionValueCents: pf.value},
			t.cfg.Risk)
		if !dec.Approved {
			t.reject(ctx, report, opp.RuleName, dec.Reason)
			continue
		}

		order, ok := domain.SizeOrder(opp, pf.cash, t.cfg.Sizing)
		if !ok {
			t.reject(ctx, report, opp.RuleName, "could not size a valid order")
			continue
		}

		ticker, err := t.broker.FindTicker(ctx, opp.Primary.RawTitle)
		if err != nil {
			reason := "ticker lookup failed"
			if errors.Is(err, domain.ErrNotFound) {
				reason = "ticker not found"
			}
			slog.Debug("ticker lookup", "rule", opp.RuleName, "err", err)
			t.reject(ctx, report, opp.RuleName, reason)
			continue
		}
		if pf.held[ticker] {
			t.reject(ctx, report, opp.RuleName, "already holding "+ticker)
			continue
		}

		receipt := domain.OrderReceipt{OrderID: dryRunOrderID}
		if !t.cfg.DryRun {
			receipt, err = t.broker.PlaceOrder(ctx, domain.OrderRequest{
				Ticker: ticker,
				Side:   order.Side,
				Action: domain.ActionBuy,
				Count:  order.Count,
				Price:  order.Price,
			})
			if err != nil {
				slog.Warn("order failed, stopping buys for this run", "rule", opp.RuleName, "ticker", ticker, "err", err)
				t.reject(ctx, report, opp.RuleName, "order failed: "+err.Error())
				report.Halted = "stopped after a failed order"
				return nil
			}
			if err := t.ledger.RecordFill(ctx, domain.Fill{
				ID:       receipt.OrderID,
				Ticker:   ticker,
				Side:     order.Side,
				Count:    order.Count,
				Price:    order.Price,
				RuleName: opp.RuleName,
				FilledAt: t.now(),
			}); err != nil {
				slog.Warn("ledger fill not recorded", "ticker", ticker, "err", err)
			}
			day.RecordBuy(ticker)
		}

		pf.cash -= order.TotalCost
		pf.value += order.TotalCost
		pf.open++
		pf.held[ticker] = true

		trade := domain.Trade{
			RuleName: opp.RuleName,
			Ticker:   ticker,
			Side:     order.Side,
			Count:    order.Count,
			Price:    order.Price,
			Cost:     domain.CentsToDollars(order.TotalCost),
			ROI:      order.ROI,
			Spread:   opp.Spread,
			OrderID:  receipt.OrderID,
		}
		report.Trades = append(report.Trades, trade)
		slog.Info("trade executed",
			"rule", opp.RuleName,
			"ticker", ticker,
			"side", order.Side,
			"count", order.Count,
			"price", order.Price,
			"dry_run", t.cfg.DryRun,
		)
		t.log(ctx, domain.EventTrade, trade)
	}
	return nil
}

func (t *Trader) reject(ctx context.Context, report *domain.RunReport, rule, reason string) {
	slog.Info("opportunity rejected", "rule", rule, "reason", reason)
	rej := domain.Rejection{RuleName: rule, Reason: reason}
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

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
