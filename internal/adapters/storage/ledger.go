package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// RecordFill guarda la compra y abre (o amplía) la posición del ticker.
// Sobre una posición abierta el precio de entrada pasa a ser la media ponderada.
func (s *SQLiteLedger) RecordFill(ctx context.Context, f domain.Fill) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.FilledAt.IsZero() {
		f.FilledAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.RecordFill: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO fills (id, ticker, side, count, price, rule_name, filled_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Ticker, string(f.Side), f.Count, f.Price, f.RuleName, ts(f.FilledAt),
	); err != nil {
		return fmt.Errorf("storage.RecordFill: insert fill %s: %w", f.Ticker, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO positions (ticker, side, entry_price, count, peak, state, rule_name, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, 'OPEN', ?, ?, NULL)
		ON CONFLICT(ticker) DO UPDATE SET
			entry_price = CASE WHEN positions.state = 'CLOSED' THEN excluded.entry_price
			              ELSE (positions.entry_price * positions.count + excluded.entry_price * excluded.count)
			                   / (positions.count + excluded.count) END,
			count       = CASE WHEN positions.state = 'CLOSED' THEN excluded.count
			              ELSE positions.count + excluded.count END,
			peak        = CASE WHEN positions.state = 'CLOSED' THEN excluded.peak
			              ELSE MAX(positions.peak, excluded.peak) END,
			opened_at   = CASE WHEN positions.state = 'CLOSED' THEN excluded.opened_at
			              ELSE positions.opened_at END,
			side        = excluded.side,
			rule_name   = excluded.rule_name,
			state       = 'OPEN',
			closed_at   = NULL
	`,
		f.Ticker, string(f.Side), float64(f.Price), f.Count, float64(f.Price), f.RuleName, ts(f.FilledAt),
	); err != nil {
		return fmt.Errorf("storage.RecordFill: upsert position %s: %w", f.Ticker, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.RecordFill: commit: %w", err)
	}
	return nil
}

const entryColumns = `ticker, side, entry_price, count, peak, state, opened_at`

// Entry devuelve la posición no cerrada del ticker.
func (s *SQLiteLedger) Entry(ctx context.Context, ticker string) (domain.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM positions WHERE ticker = ? AND state != 'CLOSED'`, ticker)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, false, nil
	}
	if err != nil {
		return domain.Entry{}, false, fmt.Errorf("storage.Entry %s: %w", ticker, err)
	}
	return e, true, nil
}

// OpenEntries devuelve todas las posiciones no cerradas, las más antiguas primero.
func (s *SQLiteLedger) OpenEntries(ctx context.Context) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM positions WHERE state != 'CLOSED' ORDER BY opened_at, ticker`)
	if err != nil {
		return nil, fmt.Errorf("storage.OpenEntries: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.OpenEntries: scan row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdatePeak sube el pico si price lo supera.
func (s *SQLiteLedger) UpdatePeak(ctx context.Context, ticker string, price float64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE positions SET peak = MAX(peak, ?) WHERE ticker = ? AND state != 'CLOSED'`,
		price, ticker,
	); err != nil {
		return fmt.Errorf("storage.UpdatePeak %s: %w", ticker, err)
	}
	return nil
}

// SetState persiste el estado de la máquina de la posición.
func (s *SQLiteLedger) SetState(ctx context.Context, ticker string, state domain.PositionState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET state = ? WHERE ticker = ? AND state != 'CLOSED'`, string(state), ticker)
	if err != nil {
		return fmt.Errorf("storage.SetState %s: %w", ticker, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.SetState %s: %w", ticker, domain.ErrNotFound)
	}
	return nil
}

// RecordExit guarda la salida y cierra la posición.
func (s *SQLiteLedger) RecordExit(ctx context.Context, x domain.ExitAction) error {
	now := ts(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.RecordExit: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO exits (ticker, kind, side, count, entry_price, exit_price, pnl_pct, exited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		x.Ticker, string(x.Kind), string(x.Side), x.Count, x.EntryPrice, x.CurrentPrice, x.PnLPct, now,
	); err != nil {
		return fmt.Errorf("storage.RecordExit: insert exit %s: %w", x.Ticker, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE positions SET state = 'CLOSED', closed_at = ? WHERE ticker = ?`, now, x.Ticker,
	); err != nil {
		return fmt.Errorf("storage.RecordExit: close position %s: %w", x.Ticker, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.RecordExit: commit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(r scanner) (domain.Entry, error) {
	var e domain.Entry
	var side, state, opened string
	if err := r.Scan(&e.Ticker, &side, &e.Price, &e.Count, &e.Peak, &state, &opened); err != nil {
		return domain.Entry{}, err
	}
	e.Side = domain.Side(side)
	e.State = domain.PositionState(state)
	e.OpenedAt = parseTS(opened)
	return e, nil
}
