package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func goodOpp() Opportunity {
	return Opportunity{
		RuleName:         "Fed Rate Cut",
		Spread:           12,
		Direction:        BuyNo,
		Edge:             12,
		EntryCost:        40,
		ROI:              30,
		DaysToResolution: 14,
		Volume:           25_000,
	}
}

func TestEvaluateRisk_Pass(t *testing.T) {
	d := EvaluateRisk(goodOpp(), AccountState{CashCents: 5000}, PortfolioState{}, DefaultRiskLimits())
	assert.True(t, d.Approved)
	assert.Equal(t, "PASS", d.Reason)
}

func TestEvaluateRisk_SpreadBoundary(t *testing.T) {
	lim := DefaultRiskLimits()
	acct := AccountState{CashCents: 5000}

	o := goodOpp()
	o.Spread = lim.MinSpread
	assert.True(t, EvaluateRisk(o, acct, PortfolioState{}, lim).Approved)

	o.Spread = lim.MinSpread - 1
	d := EvaluateRisk(o, acct, PortfolioState{}, lim)
	assert.False(t, d.Approved)
	assert.Equal(t, "Spread 4 < 5", d.Reason)
}

func TestEvaluateRisk_LowSpreadAlwaysRejected(t *testing.T) {
	o := goodOpp()
	o.Spread = 4.9
	o.ROI = 500
	o.Edge = 90
	o.Volume = 10_000_000
	d := EvaluateRisk(o, AccountState{CashCents: 1_000_000}, PortfolioState{}, DefaultRiskLimits())
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reason, "Spread")
}

func TestEvaluateRisk_OrderOfChecks(t *testing.T) {
	lim := DefaultRiskLimits()
	cases := []struct {
		name   string
		mutate func(*Opportunity, *AccountState, *PortfolioState)
		reason string
	}{
		{"cash first", func(o *Opportunity, a *AccountState, _ *PortfolioState) {
			a.CashCents = 599
			o.Spread = 1
		}, "Cash too low ($5.99 < $6.00)"},
		{"roi", func(o *Opportunity, _ *AccountState, _ *PortfolioState) {
			o.ROI = 7.9
			o.Volume = 10
		}, "ROI 7.9% < 8%"},
		{"volume", func(o *Opportunity, _ *AccountState, _ *PortfolioState) {
			o.Volume = 999
			o.Edge = 1
		}, "Volume 999 < 1000"},
		{"edge", func(o *Opportunity, _ *AccountState, _ *PortfolioState) {
			o.Edge = 2.5
			o.DaysToResolution = 0
		}, "Edge 2.5¢ < 3¢ (fees eat profit)"},
		{"closes today", func(o *Opportunity, _ *AccountState, p *PortfolioState) {
			o.DaysToResolution = 0
			p.OpenPositions = 10
		}, "Market closes today (too risky)"},
		{"long term", func(o *Opportunity, _ *AccountState, _ *PortfolioState) { o.DaysToResolution = 61 }, "Too long-term (61 days)"},
		{"unknown days", func(o *Opportunity, _ *AccountState, _ *PortfolioState) { o.DaysToResolution = DaysUnknown }, "Too long-term (unknown close date)"},
		{"positions", func(_ *Opportunity, _ *AccountState, p *PortfolioState) {
			p.OpenPositions = 6
			p.PositionValueCents = 9000
		}, "Max positions hit (6 >= 6)"},
		{"position value", func(_ *Opportunity, _ *AccountState, p *PortfolioState) { p.PositionValueCents = 6001 }, "Position limit hit ($60 > $60)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := goodOpp()
			a := AccountState{CashCents: 5000}
			p := PortfolioState{}
			c.mutate(&o, &a, &p)
			d := EvaluateRisk(o, a, p, lim)
			assert.False(t, d.Approved)
			assert.Equal(t, c.reason, d.Reason)
		})
	}
}

func TestEvaluateRisk_SixtyDaysPasses(t *testing.T) {
	o := goodOpp()
	o.DaysToResolution = 60
	assert.True(t, EvaluateRisk(o, AccountState{CashCents: 5000}, PortfolioState{PositionValueCents: 6000}, DefaultRiskLimits()).Approved)
}
