package storage

// sqlite.go: ledger de posiciones y archivo de oportunidades.
//
// Tablas:
//   - `positions`: UNA fila por ticker. Es la fuente canónica del precio de entrada;
//     una recompra sobre una posición abierta promedia el precio.
//   - `fills` / `exits`: histórico append-only de compras y salidas.
//   - `opportunities`: UNA fila por regla (UPSERT). Solo se reescribe si el spread
//     cambió > 5% o cambió la dirección (cache en memoria).
//   - Prune al arrancar: posiciones cerradas > 90d, oportunidades no vistas en 14d.
//
// Las fechas se guardan como texto RFC3339 en UTC.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
    ticker      TEXT PRIMARY KEY,
    side        TEXT    NOT NULL,
    entry_price REAL    NOT NULL,
    count       INTEGER NOT NULL,
    peak        REAL    NOT NULL DEFAULT 0,
    state       TEXT    NOT NULL DEFAULT 'OPEN',
    rule_name   TEXT,
    opened_at   TEXT    NOT NULL,
    closed_at   TEXT
);

CREATE TABLE IF NOT EXISTS fills (
    id        TEXT PRIMARY KEY,
    ticker    TEXT    NOT NULL,
    side      TEXT    NOT NULL,
    count     INTEGER NOT NULL,
    price     INTEGER NOT NULL,
    rule_name TEXT,
    filled_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS exits (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker      TEXT    NOT NULL,
    kind        TEXT    NOT NULL,
    side        TEXT    NOT NULL,
    count       INTEGER NOT NULL,
    entry_price REAL    NOT NULL,
    exit_price  REAL    NOT NULL,
    pnl_pct     REAL    NOT NULL,
    exited_at   TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS opportunities (
    rule_name       TEXT PRIMARY KEY,
    primary_key     TEXT    NOT NULL,
    primary_title   TEXT,
    external_source TEXT    NOT NULL,
    external_title  TEXT,
    primary_yes     REAL    NOT NULL DEFAULT 0,
    external_yes    REAL    NOT NULL DEFAULT 0,
    spread          REAL    NOT NULL DEFAULT 0,
    direction       TEXT    NOT NULL,
    edge            REAL    NOT NULL DEFAULT 0,
    entry_cost      REAL    NOT NULL DEFAULT 0,
    roi             REAL    NOT NULL DEFAULT 0,
    days            INTEGER NOT NULL DEFAULT 0,
    volume          INTEGER NOT NULL DEFAULT 0,
    first_seen      TEXT    NOT NULL,
    last_seen       TEXT    NOT NULL,
    peak_spread     REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_positions_state ON positions(state);
CREATE INDEX IF NOT EXISTS idx_fills_ticker    ON fills(ticker);
CREATE INDEX IF NOT EXISTS idx_exits_ticker    ON exits(ticker);
CREATE INDEX IF NOT EXISTS idx_opp_last        ON opportunities(last_seen DESC);
`

const (
	retentionClosed = 90 * 24 * time.Hour
	retentionOpps   = 14 * 24 * time.Hour
	spreadChangePct = 0.05
)

// cachedOpp es lo último que se escribió de una regla.
type cachedOpp struct {
	spread    float64
	direction string
}

// SQLiteLedger implementa ports.PositionLedger y ports.OpportunityStore
// usando SQLite (pure Go, sin CGo).
type SQLiteLedger struct {
	db    *sql.DB
	now   func() time.Time
	cache map[string]cachedOpp
	mu    sync.Mutex
}

// LedgerOption configura un SQLiteLedger.
type LedgerOption func(*SQLiteLedger)

// WithClock reemplaza time.Now para los timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *SQLiteLedger) { s.now = now }
}

// NewSQLiteLedger abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteLedger(path string, opts ...LedgerOption) (*SQLiteLedger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage.NewSQLiteLedger: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteLedger: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteLedger: apply schema: %w", err)
	}

	s := &SQLiteLedger{
		db:    db,
		now:   time.Now,
		cache: make(map[string]cachedOpp),
	}
	for _, o := range opts {
		o(s)
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteLedger) pruneOld(ctx context.Context) {
	now := s.now().UTC()
	s.db.ExecContext(ctx, `DELETE FROM positions WHERE state = 'CLOSED' AND closed_at < ?`, ts(now.Add(-retentionClosed)))
	s.db.ExecContext(ctx, `DELETE FROM opportunities WHERE last_seen < ?`, ts(now.Add(-retentionOpps)))
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTS(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
