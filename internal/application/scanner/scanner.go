package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/arbgate/internal/domain"
	"github.com/alejandrodnm/arbgate/internal/ports"
)

// Config contiene la configuración del scanner.
type Config struct {
	Eval       domain.EvalParams
	Policy     domain.ExternalPolicy
	Rules      []domain.MatchRule
	ModelRules []domain.ModelRule
	Thresholds []float64
	Weights    domain.Weights
	Tiers      domain.TierParams
}

// DefaultConfig son los parámetros de los scans informativos.
func DefaultConfig() Config {
	return Config{
		Eval:       domain.DefaultScanParams(),
		Policy:     domain.ExternalFirst,
		Rules:      domain.DefaultRules(),
		ModelRules: domain.DefaultModelRules(),
		Thresholds: domain.DefaultThresholds(),
		Weights:    domain.DefaultWeights(),
		Tiers:      domain.DefaultTierParams(),
	}
}

// Sources agrupa las fuentes de un scan. Series es opcional.
type Sources struct {
	Primary   ports.Source
	Externals []ports.Source
	Series    ports.SeriesSource
}

// Result es el resultado de un scan.
type Result struct {
	Opportunities []domain.Opportunity
	Degraded      []domain.FetchResult
	Model         *domain.ProbabilityModel
	PrimaryCount  int
}

// Scanner orquesta fetch → match → evaluate → rank.
type Scanner struct {
	cfg      Config
	src      Sources
	matcher  *domain.Matcher
	notifier ports.Notifier
	store    ports.OpportunityStore
	runlog   ports.RunLog
	now      func() time.Time
}

// Option configura dependencias opcionales del Scanner.
type Option func(*Scanner)

// WithStore guarda el historial de oportunidades de cada run.
func WithStore(s ports.OpportunityStore) Option {
	return func(sc *Scanner) { sc.store = s }
}

// WithRunLog registra cada scan en el run log.
func WithRunLog(l ports.RunLog) Option {
	return func(sc *Scanner) { sc.runlog = l }
}

// WithClock fija el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(sc *Scanner) { sc.now = now }
}

// New crea un Scanner con todas las dependencias inyectadas.
func New(cfg Config, src Sources, notifier ports.Notifier, opts ...Option) *Scanner {
	s := &Scanner{
		cfg:      cfg,
		src:      src,
		matcher:  domain.NewMatcher(cfg.Policy),
		notifier: notifier,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan consulta todas las fuentes en orden y devuelve las oportunidades por
// spread descendente. Una fuente caída solo reduce los resultados.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	now := s.now()

	primary := s.fetch(ctx, s.src.Primary)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("scanner.Scan: %w", err)
	}

	res := Result{PrimaryCount: len(primary.Records)}
	if !primary.OK() {
		res.Degraded = append(res.Degraded, primary)
	}

	externals := make([][]domain.MarketRecord, 0, len(s.src.Externals))
	for _, src := range s.src.Externals {
		fr := s.fetch(ctx, src)
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("scanner.Scan: %w", err)
		}
		if !fr.OK() {
			res.Degraded = append(res.Degraded, fr)
		}
		externals = append(externals, fr.Records)
	}

	cands := s.matcher.Match(primary.Records, s.cfg.Rules, externals)
	opps := domain.EvaluateCandidates(cands, s.cfg.Eval, now)

	if s.src.Series != nil {
		modelOpps, model := s.analyzeModel(ctx, primary.Records, now)
		opps = append(opps, modelOpps...)
		res.Model = model
	}

	domain.RankBySpread(opps)
	res.Opportunities = opps

	slog.Debug("scan complete",
		"primary", len(primary.Records),
		"candidates", len(cands),
		"opportunities", len(opps),
		"degraded", len(res.Degraded),
	)
	return res, nil
}

// RunOnce ejecuta un scan y notifica/persiste los resultados.
func (s *Scanner) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()

	res, err := s.Scan(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := s.notifier.NotifyScan(ctx, res.Opportunities); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if s.store != nil {
		if err := s.store.SaveOpportunities(ctx, res.Opportunities); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	s.log(ctx, domain.EventScan, scanPayload(res))

	slog.Info("scan cycle complete",
		"opportunities", len(res.Opportunities),
		"degraded_sources", len(res.Degraded),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// Tiers busca oportunidades de mercado único sobre la fuente primaria.
func (s *Scanner) Tiers(ctx context.Context) ([]domain.TierSignal, error) {
	primary := s.fetch(ctx, s.src.Primary)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scanner.Tiers: %w", err)
	}
	return domain.ScanTiers(primary.Records, s.cfg.Tiers, s.now()), nil
}

// RunTiers ejecuta Tiers y notifica las señales.
func (s *Scanner) RunTiers(ctx context.Context) ([]domain.TierSignal, error) {
	signals, err := s.Tiers(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.NotifyTiers(ctx, signals); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	counts := make(map[string]int)
	for _, sig := range signals {
		counts[sig.Tier.String()]++
	}
	s.log(ctx, domain.EventTiers, counts)

	slog.Info("tier scan complete", "signals", len(signals))
	return signals, nil
}

// fetch consulta una fuente y registra el motivo si vuelve degradada.
func (s *Scanner) fetch(ctx context.Context, src ports.Source) domain.FetchResult {
	if src == nil {
		return domain.FetchResult{}
	}
	fr := src.Fetch(ctx)
	if fr.Source == "" {
		fr.Source = src.Name()
	}
	if !fr.OK() {
		slog.Warn("source degraded", "source", fr.Source, "reason", fr.Reason, "err", fr.Err)
		return fr
	}
	slog.Debug("source fetched", "source", fr.Source, "records", len(fr.Records), "skipped", fr.Skipped)
	return fr
}

func (s *Scanner) log(ctx context.Context, kind domain.EventKind, payload any) {
	if s.runlog == nil {
		return
	}
	if err := s.runlog.Append(ctx, domain.NewLogEvent(kind, payload, s.now())); err != nil {
		slog.Warn("run log error", "err", err)
	}
}

type scanSummary struct {
	Opportunities int                `json:"opportunities"`
	Top           []opportunityBrief `json:"top,omitempty"`
	Degraded      map[string]string  `json:"degraded,omitempty"`
}

type opportunityBrief struct {
	Rule      string  `json:"rule"`
	Source    string  `json:"source"`
	Spread    float64 `json:"spread"`
	Direction string  `json:"direction"`
	ROI       float64 `json:"roi"`
}

func scanPayload(res Result) scanSummary {
	sum := scanSummary{Opportunities: len(res.Opportunities)}
	for i, o := range res.Opportunities {
		if i >= 5 {
			break
		}
		sum.Top = append(sum.Top, opportunityBrief{
			Rule:      o.RuleName,
			Source:    string(o.External.SourceID),
			Spread:    o.Spread,
			Direction: string(o.Direction),
			ROI:       o.ROI,
		})
	}
	if len(res.Degraded) > 0 {
		sum.Degraded = make(map[string]string, len(res.Degraded))
		for _, d := range res.Degraded {
			sum.Degraded[d.Source] = d.Reason
		}
	}
	return sum
}
