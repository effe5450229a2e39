package trader

import (
	"context"
	"log/slog"
	"math"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// runExits evalúa SL/TP/trailing sobre las posiciones del broker y vende las
// que lo disparan. Un fallo de envío deja la posición OPEN para el próximo run.
func (t *Trader) runExits(ctx context.Context, holdings []domain.Holding, pf *portfolio, day *domain.DailyState, report *domain.RunReport) {
	t.reconcile(ctx, holdings)

	entries := make(map[string]domain.Entry, len(holdings))
	quotes := make(map[string]domain.Quote, len(holdings))

	for _, h := range holdings {
		if h.Count == 0 {
			continue
		}
		e, ok, err := t.ledger.Entry(ctx, h.Ticker)
		if err != nil {
			slog.Warn("ledger lookup failed", "ticker", h.Ticker, "err", err)
			continue
		}
		if !ok {
			slog.Debug("no ledger entry for position, skipping exits", "ticker", h.Ticker)
			continue
		}

		mkt, err := t.broker.Market(ctx, h.Ticker)
		if err != nil {
			slog.Warn("quote unavailable", "ticker", h.Ticker, "err", err)
			continue
		}

		side := e.Side
		if side == "" {
			side = h.Side()
		}
		if cur := domain.CurrentPrice(side, mkt.Quote); cur > e.Peak {
			e.Peak = cur
			if !t.cfg.DryRun {
				if err := t.ledger.UpdatePeak(ctx, h.Ticker, cur); err != nil {
					slog.Warn("peak not updated", "ticker", h.Ticker, "err", err)
				}
			}
		}
		entries[h.Ticker] = e
		quotes[h.Ticker] = mkt.Quote
	}

	entryOf := func(ticker string) (domain.Entry, bool) {
		e, ok := entries[ticker]
		return e, ok
	}
	quoteOf := func(ticker string) (domain.Quote, bool) {
		q, ok := quotes[ticker]
		return q, ok
	}
	actions := domain.CheckExits(holdings, entryOf, quoteOf, t.cfg.Exits)

	for _, x := range actions {
		slog.Info("exit triggered", "ticker", x.Ticker, "kind", x.Kind, "pnl_pct", x.PnLPct, "reason", x.Reason)

		if t.cfg.DryRun {
			report.Exits = append(report.Exits, x)
			continue
		}

		if err := t.closePosition(ctx, x); err != nil {
			slog.Warn("exit submission failed, will retry next run", "ticker", x.Ticker, "kind", x.Kind, "err", err)
			fail := domain.ExitFailure{Ticker: x.Ticker, Kind: x.Kind, Err: err.Error()}
			report.ExitFailures = append(report.ExitFailures, fail)
			t.log(ctx, domain.EventExitFailed, fail)
			continue
		}

		day.RecordExit(x.Ticker, x.Kind)
		pf.cash += int64(math.Round(x.CurrentPrice)) * x.Count
		pf.open--
		pf.value -= int64(math.Round(x.EntryPrice)) * x.Count
		if pf.value < 0 {
			pf.value = 0
		}
		report.Exits = append(report.Exits, x)
		t.log(ctx, domain.EventExit, x)
	}
}

// closePosition recorre OPEN → TRIGGERED → EXIT_SUBMITTED → CLOSED, o vuelve a
// OPEN si el broker rechaza la venta.
func (t *Trader) closePosition(ctx context.Context, x domain.ExitAction) error {
	state := domain.PositionOpen
	advance := func(ev domain.PositionEvent) error {
		next, err := state.Next(ev)
		if err != nil {
			return err
		}
		state = next
		if next.Terminal() {
			return nil // RecordExit persiste el cierre
		}
		if err := t.ledger.SetState(ctx, x.Ticker, next); err != nil {
			slog.Warn("position state not persisted", "ticker", x.Ticker, "state", next, "err", err)
		}
		return nil
	}

	if err := advance(domain.EventExitTriggered); err != nil {
		return err
	}

	receipt, err := t.broker.ClosePosition(ctx, x)
	if err != nil {
		if ferr := advance(domain.EventSubmitFailed); ferr != nil {
			slog.Warn("position state rollback failed", "ticker", x.Ticker, "err", ferr)
		}
		return err
	}
	if err := advance(domain.EventExitSubmitted); err != nil {
		return err
	}
	slog.Debug("exit order submitted", "ticker", x.Ticker, "order_id", receipt.OrderID, "status", receipt.Status)

	if err := advance(domain.EventExitFilled); err != nil {
		return err
	}
	if err := t.ledger.RecordExit(ctx, x); err != nil {
		slog.Warn("ledger exit not recorded", "ticker", x.Ticker, "err", err)
	}
	return nil
}

// reconcile cierra en el ledger las entradas abiertas que el broker ya no
// reporta (settlement, venta manual), así una compra nueva del mismo ticker
// arranca una entrada limpia.
func (t *Trader) reconcile(ctx context.Context, holdings []domain.Holding) {
	held := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		if h.Count != 0 {
			held[h.Ticker] = true
		}
	}

	open, err := t.ledger.OpenEntries(ctx)
	if err != nil {
		slog.Warn("ledger reconciliation skipped", "err", err)
		return
	}
	for _, e := range open {
		if held[e.Ticker] {
			continue
		}
		slog.Info("position closed outside the bot, reconciling ledger",
			"ticker", e.Ticker, "side", e.Side, "count", e.Count, "dry_run", t.cfg.DryRun)
		if t.cfg.DryRun {
			continue
		}
		x := domain.ExitAction{
			Ticker:       e.Ticker,
			Kind:         domain.External,
			Side:         e.Side,
			Count:        e.Count,
			EntryPrice:   e.Price,
			CurrentPrice: e.Price,
			Reason:       "not held by broker",
		}
		if err := t.ledger.RecordExit(ctx, x); err != nil {
			slog.Warn("ledger reconciliation failed", "ticker", e.Ticker, "err", err)
		}
	}
}
