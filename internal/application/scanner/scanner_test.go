package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbgate/internal/application/scanner"
	"github.com/alejandrodnm/arbgate/internal/domain"
	"github.com/alejandrodnm/arbgate/internal/ports"
)

// --- mocks ---

type mockSource struct {
	name   string
	result domain.FetchResult
	calls  int
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(_ context.Context) domain.FetchResult {
	m.calls++
	return m.result
}

type mockSeries struct {
	result domain.SeriesResult
}

func (m *mockSeries) Series(_ context.Context) domain.SeriesResult { return m.result }

type mockNotifier struct {
	scanned []domain.Opportunity
	tiers   []domain.TierSignal
	err     error
}

func (m *mockNotifier) NotifyScan(_ context.Context, opps []domain.Opportunity) error {
	m.scanned = opps
	return m.err
}

func (m *mockNotifier) NotifyTiers(_ context.Context, signals []domain.TierSignal) error {
	m.tiers = signals
	return m.err
}

func (m *mockNotifier) NotifyRun(_ context.Context, _ domain.RunReport) error { return m.err }

type mockStore struct {
	saved []domain.Opportunity
	err   error
}

func (m *mockStore) SaveOpportunities(_ context.Context, opps []domain.Opportunity) error {
	m.saved = opps
	return m.err
}

type mockRunLog struct {
	events []domain.LogEvent
}

func (m *mockRunLog) Append(_ context.Context, ev domain.LogEvent) error {
	m.events = append(m.events, ev)
	return nil
}

// --- helpers ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(t *testing.T, src domain.SourceID, title string, yes float64) domain.MarketRecord {
	t.Helper()
	r, err := domain.NewMarketRecord(src, domain.Normalize(title), title, yes)
	require.NoError(t, err)
	return r.WithVolume(5000).WithCloseTime(testNow.Add(20 * 24 * time.Hour))
}

func fedRules() []domain.MatchRule {
	return []domain.MatchRule{
		{Name: "Fed Rate Cut March", PrimaryKeywords: []string{"fed", "rate", "march"}, ExternalKeywords: []string{"fed", "rate", "march"}},
	}
}

func newScanner(cfg scanner.Config, src scanner.Sources, n ports.Notifier, opts ...scanner.Option) *scanner.Scanner {
	opts = append(opts, scanner.WithClock(func() time.Time { return testNow }))
	return scanner.New(cfg, src, n, opts...)
}

// --- tests ---

func TestScanner_Scan_DegradedSourceDoesNotAbort(t *testing.T) {
	kalshi := &mockSource{name: "kalshi", result: domain.Fetched("kalshi", []domain.MarketRecord{
		record(t, domain.SourceKalshi, "Will the Fed cut the rate in March?", 30),
	}, 0)}
	poly := &mockSource{name: "polymarket", result: domain.Degraded("polymarket", "timeout", errors.New("context deadline exceeded"))}
	predictit := &mockSource{name: "predictit", result: domain.Fetched("predictit", []domain.MarketRecord{
		record(t, domain.SourcePredictIt, "Fed rate cut in March", 45),
	}, 0)}

	cfg := scanner.DefaultConfig()
	cfg.Rules = fedRules()
	s := newScanner(cfg, scanner.Sources{Primary: kalshi, Externals: []ports.Source{poly, predictit}}, &mockNotifier{})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Opportunities, 1)
	opp := res.Opportunities[0]
	assert.Equal(t, "Fed Rate Cut March", opp.RuleName)
	assert.Equal(t, domain.SourcePredictIt, opp.External.SourceID)
	assert.Equal(t, 15.0, opp.Spread)
	assert.Equal(t, domain.BuyYes, opp.Direction)
	assert.Equal(t, 20, opp.DaysToResolution)

	require.Len(t, res.Degraded, 1)
	assert.Equal(t, "polymarket", res.Degraded[0].Source)
	assert.Equal(t, "timeout", res.Degraded[0].Reason)
}

func TestScanner_Scan_AllSourcesDownIsEmpty(t *testing.T) {
	kalshi := &mockSource{name: "kalshi", result: domain.Degraded("kalshi", "HTTP 503", errors.New("503"))}
	poly := &mockSource{name: "polymarket", result: domain.Degraded("polymarket", "timeout", errors.New("timeout"))}

	s := newScanner(scanner.DefaultConfig(), scanner.Sources{Primary: kalshi, Externals: []ports.Source{poly}}, &mockNotifier{})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Opportunities)
	assert.Len(t, res.Degraded, 2)
}

func TestScanner_Scan_FirstExternalWins(t *testing.T) {
	kalshi := &mockSource{name: "kalshi", result: domain.Fetched("kalshi", []domain.MarketRecord{
		record(t, domain.SourceKalshi, "Will the Fed cut the rate in March?", 30),
	}, 0)}
	poly := &mockSource{name: "polymarket", result: domain.Fetched("polymarket", []domain.MarketRecord{
		record(t, domain.SourcePolymarket, "Fed rate cut March 2026", 40),
	}, 0)}
	predictit := &mockSource{name: "predictit", result: domain.Fetched("predictit", []domain.MarketRecord{
		record(t, domain.SourcePredictIt, "Fed rate cut in March", 65),
	}, 0)}

	cfg := scanner.DefaultConfig()
	cfg.Rules = fedRules()

	res, err := newScanner(cfg, scanner.Sources{Primary: kalshi, Externals: []ports.Source{poly, predictit}}, &mockNotifier{}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Opportunities, 1)
	assert.Equal(t, domain.SourcePolymarket, res.Opportunities[0].External.SourceID)

	cfg.Policy = domain.ExternalDecisive
	res, err = newScanner(cfg, scanner.Sources{Primary: kalshi, Externals: []ports.Source{poly, predictit}}, &mockNotifier{}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Opportunities, 1)
	assert.Equal(t, domain.SourcePredictIt, res.Opportunities[0].External.SourceID)
}

func TestScanner_Scan_MergesModelOpportunities(t *testing.T) {
	kalshi := &mockSource{name: "kalshi", result: domain.Fetched("kalshi", []domain.MarketRecord{
		record(t, domain.SourceKalshi, "CPI above 0.3% in March?", 20),
	}, 0)}
	series := &mockSeries{result: domain.SeriesResult{
		Series: "CPIAUCSL",
		Values: []float64{100, 100.4, 100.8016, 101.2048064},
	}}

	cfg := scanner.DefaultConfig()
	cfg.Rules = nil
	s := newScanner(cfg, scanner.Sources{Primary: kalshi, Series: series}, &mockNotifier{})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Model)
	assert.InDelta(t, 0.4, res.Model.Mean, 1e-9)

	require.Len(t, res.Opportunities, 1)
	opp := res.Opportunities[0]
	assert.Equal(t, "CPI MoM > 0.3% (model)", opp.RuleName)
	assert.Equal(t, domain.SourceModel, opp.External.SourceID)
	assert.Equal(t, domain.BuyYes, opp.Direction)
}

func TestScanner_Scan_SeriesDownSkipsModel(t *testing.T) {
	kalshi := &mockSource{name: "kalshi", result: domain.Fetched("kalshi", []domain.MarketRecord{
		record(t, domain.SourceKalshi, "CPI above 0.3% in March?", 20),
	}, 0)}
	series := &mockSeries{result: domain.SeriesResult{Series: "CPIAUCSL", Reason: "no API key configured"}}

	res, err := newScanner(scanner.DefaultConfig(), scanner.Sources{Primary: kalshi, Series: series}, &mockNotifier{}).Scan(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Model)
	assert.Empty(t, res.Opportunities)
}

func TestScanner_Scan_CancelledContext(t *testing.T) {
	kalshi := &mockSource{name: "kalshi", result: domain.Fetched("kalshi", nil, 0)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(scanner.DefaultConfig(), scanner.Sources{Primary: kalshi}, &mockNotifier{}).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_RunOnce_NotifiesAndPersists(t *testing.T) {
	kalshi := &mockSource{name: "kalshi", result: domain.Fetched("kalshi", []domain.MarketRecord{
		record(t, domain.SourceKalshi, "Will the Fed cut the rate in March?", 30),
	}, 0)}
	poly := &mockSource{name: "polymarket", result: domain.Fetched("polymarket", []domain.MarketRecord{
		record(t, domain.SourcePolymarket, "Fed rate cut March 2026", 40),
	}, 0)}

	cfg := scanner.DefaultConfig()
	cfg.Rules = fedRules()
	n := &mockNotifier{}
	store := &mockStore{}
	log := &mockRunLog{}
	s := newScanner(cfg, scanner.Sources{Primary: kalshi, Externals: []ports.Source{poly}}, n,
		scanner.WithStore(store), scanner.WithRunLog(log))

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Opportunities, 1)
	assert.Equal(t, res.Opportunities, n.scanned)
	assert.Equal(t, res.Opportunities, store.saved)
	require.Len(t, log.events, 1)
	assert.Equal(t, domain.EventScan, log.events[0].Kind)
}

func TestScanner_RunOnce_StoreErrorIsNotFatal(t *testing.T) {
	kalshi := &mockSource{name: "kalshi", result: domain.Fetched("kalshi", nil, 0)}
	s := newScanner(scanner.DefaultConfig(), scanner.Sources{Primary: kalshi}, &mockNotifier{},
		scanner.WithStore(&mockStore{err: errors.New("disk full")}))

	_, err := s.RunOnce(context.Background())
	assert.NoError(t, err)
}

func TestScanner_RunTiers(t *testing.T) {
	q := domain.Quote{YesBid: 8, YesAsk: 10}
	r, err := domain.NewQuotedRecord(domain.SourceKalshi, "KX-SNOW", "Snow in Miami?", q)
	require.NoError(t, err)
	kalshi := &mockSource{name: "kalshi", result: domain.Fetched("kalshi", []domain.MarketRecord{
		r.WithVolume(900).WithCloseTime(testNow.Add(5 * 24 * time.Hour)),
	}, 0)}
	n := &mockNotifier{}

	signals, err := newScanner(scanner.DefaultConfig(), scanner.Sources{Primary: kalshi}, n).RunTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.TierShort, signals[0].Tier)
	assert.Equal(t, domain.SideNo, signals[0].Side)
	assert.Equal(t, "KX-SNOW", signals[0].Ticker)
	assert.Equal(t, signals, n.tiers)
}
