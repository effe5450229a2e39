package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// analyzeModel construye el modelo de probabilidad con la serie histórica y lo
// compara contra los mercados primarios de las ModelRules.
// Si la serie no está disponible devuelve nil: el scan sigue sin el modelo.
func (s *Scanner) analyzeModel(ctx context.Context, primary []domain.MarketRecord, now time.Time) ([]domain.Opportunity, *domain.ProbabilityModel) {
	sr := s.src.Series.Series(ctx)
	if !sr.OK() {
		slog.Warn("series degraded", "series", sr.Series, "reason", sr.Reason, "err", sr.Err)
		return nil, nil
	}

	changes := domain.PercentChanges(sr.Values)
	model, err := domain.BuildModel(changes, s.cfg.Thresholds, s.cfg.Weights)
	if err != nil {
		slog.Warn("probability model skipped", "series", sr.Series, "err", err)
		return nil, nil
	}

	matched := s.matcher.MatchModel(primary, s.cfg.ModelRules)
	opps := domain.EvaluateModel(sr.Series, model, s.cfg.ModelRules, matched, s.cfg.Eval, now)

	slog.Debug("probability model built",
		"series", sr.Series,
		"observations", len(changes),
		"mean", model.Mean,
		"stddev", model.StdDev,
		"matched", len(matched),
		"opportunities", len(opps),
	)
	for _, th := range model.SortedThresholds() {
		p, _ := model.Probability(th)
		slog.Debug("model threshold", "series", sr.Series, "threshold", th, "probability", p)
	}
	return opps, &model
}
