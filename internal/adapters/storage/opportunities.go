package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// SaveOpportunities hace upsert de las oportunidades que cambiaron respecto al
// ciclo anterior (cache en memoria). Las que no cambiaron solo refrescan
// last_seen. La cache se actualiza después del commit.
func (s *SQLiteLedger) SaveOpportunities(ctx context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}
	changed, unchanged := s.splitChanged(opps)
	now := ts(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveOpportunities: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities
			(rule_name, primary_key, primary_title, external_source, external_title,
			 primary_yes, external_yes, spread, direction, edge, entry_cost, roi,
			 days, volume, first_seen, last_seen, peak_spread)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rule_name) DO UPDATE SET
			primary_key     = excluded.primary_key,
			primary_title   = excluded.primary_title,
			external_source = excluded.external_source,
			external_title  = excluded.external_title,
			primary_yes     = excluded.primary_yes,
			external_yes    = excluded.external_yes,
			spread          = excluded.spread,
			direction       = excluded.direction,
			edge            = excluded.edge,
			entry_cost      = excluded.entry_cost,
			roi             = excluded.roi,
			days            = excluded.days,
			volume          = excluded.volume,
			last_seen       = excluded.last_seen,
			peak_spread     = MAX(peak_spread, excluded.spread)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveOpportunities: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range changed {
		if _, err := stmt.ExecContext(ctx,
			o.RuleName, o.Primary.Key, o.Primary.RawTitle,
			string(o.External.SourceID), o.External.RawTitle,
			o.Primary.Yes, o.External.Yes, o.Spread, string(o.Direction),
			o.Edge, o.EntryCost, o.ROI, o.DaysToResolution, o.Volume,
			now, // first_seen: ignorado en ON CONFLICT
			now,
			o.Spread,
		); err != nil {
			return fmt.Errorf("storage.SaveOpportunities: upsert %s: %w", o.RuleName, err)
		}
	}

	for _, name := range unchanged {
		if _, err := tx.ExecContext(ctx, `UPDATE opportunities SET last_seen = ? WHERE rule_name = ?`, now, name); err != nil {
			return fmt.Errorf("storage.SaveOpportunities: touch %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveOpportunities: commit: %w", err)
	}

	s.mu.Lock()
	for _, o := range changed {
		s.cache[o.RuleName] = cachedOpp{spread: o.Spread, direction: string(o.Direction)}
	}
	s.mu.Unlock()
	return nil
}

// History devuelve las oportunidades vistas desde since, mayor spread primero.
func (s *SQLiteLedger) History(ctx context.Context, since time.Time) ([]domain.SeenOpportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_name, external_source, spread, peak_spread, direction, roi, first_seen, last_seen
		FROM opportunities
		WHERE last_seen >= ?
		ORDER BY spread DESC, rule_name
	`, ts(since))
	if err != nil {
		return nil, fmt.Errorf("storage.History: query: %w", err)
	}
	defer rows.Close()

	var out []domain.SeenOpportunity
	for rows.Next() {
		var r domain.SeenOpportunity
		var dir, first, last string
		if err := rows.Scan(&r.RuleName, &r.ExternalSource, &r.Spread, &r.PeakSpread, &dir, &r.ROI, &first, &last); err != nil {
			return nil, fmt.Errorf("storage.History: scan row: %w", err)
		}
		r.Direction = domain.Direction(dir)
		r.FirstSeen = parseTS(first)
		r.LastSeen = parseTS(last)
		out = append(out, r)
	}
	return out, rows.Err()
}

// splitChanged separa las oportunidades nuevas o que cambiaron de las que
// siguen igual que en la cache. No modifica la cache.
func (s *SQLiteLedger) splitChanged(opps []domain.Opportunity) (changed []domain.Opportunity, unchanged []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range opps {
		if prev, ok := s.cache[o.RuleName]; ok {
			same := prev.direction == string(o.Direction) &&
				relChange(prev.spread, o.Spread) < spreadChangePct
			if same {
				unchanged = append(unchanged, o.RuleName)
				continue
			}
		}
		changed = append(changed, o)
	}
	return changed, unchanged
}

// warmCache precarga la cache desde la DB al arrancar.
func (s *SQLiteLedger) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `SELECT rule_name, spread, direction FROM opportunities`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var name, dir string
		var spread float64
		if rows.Scan(&name, &spread, &dir) == nil {
			s.cache[name] = cachedOpp{spread: spread, direction: dir}
		}
	}
}

// relChange devuelve el cambio relativo entre dos valores (0.0 – ∞).
func relChange(old, new float64) float64 {
	if old == 0 {
		return 1.0
	}
	return math.Abs(new-old) / math.Abs(old)
}
