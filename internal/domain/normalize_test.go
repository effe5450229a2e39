package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Will the Fed CUT rates?", "will the fed cut rates"},
		{"  S&P 500 > 6,000!  ", "sp 500  6000"},
		{"CPI > 0.3% (Jan 2026)", "cpi  03 jan 2026"},
		{"", ""},
		{"Ünïcode — dashes", "ncode  dashes"},
		{"already normalized 123", "already normalized 123"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), "input %q", c.in)
	}
}

func TestAmericanToProb(t *testing.T) {
	p, err := AmericanToProb(150)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, p, 0.001)

	p, err = AmericanToProb(-200)
	require.NoError(t, err)
	assert.InDelta(t, 66.7, p, 0.001)

	_, err = AmericanToProb(0)
	assert.ErrorIs(t, err, ErrInvalidOdds)
}

func TestAmericanToProb_RangeAndContinuity(t *testing.T) {
	for _, o := range []float64{-100000, -5000, -250, -101, -100, -1, 1, 100, 101, 250, 5000, 100000} {
		p, err := AmericanToProb(o)
		require.NoError(t, err)
		assert.Greater(t, p, 0.0, "odds %v", o)
		assert.Less(t, p, 100.0, "odds %v", o)
	}

	// +100 y -100 son la misma apuesta (50%)
	pos, _ := AmericanToProb(100)
	neg, _ := AmericanToProb(-100)
	assert.InDelta(t, pos, neg, 0.1)
}

func TestToPercentage(t *testing.T) {
	p, err := ToPercentage(0.655, FormatFraction)
	require.NoError(t, err)
	assert.InDelta(t, 65.5, p, 0.001)

	p, err = ToPercentage(42, FormatCents)
	require.NoError(t, err)
	assert.InDelta(t, 42.0, p, 0.001)

	p, err = ToPercentage(-150, FormatAmerican)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, p, 0.001)

	_, err = ToPercentage(1.2, FormatFraction)
	assert.Error(t, err)
	_, err = ToPercentage(101, FormatCents)
	assert.Error(t, err)
}

func TestNewMarketRecord_DerivesNo(t *testing.T) {
	for _, yes := range []float64{0, 0.04, 12.34, 50, 66.66, 99.95, 100} {
		r, err := NewMarketRecord(SourcePolymarket, "k", "Title", yes)
		require.NoError(t, err)
		assert.Zero(t, r.Quote.NoBid)
		assert.InDelta(t, 100.0, r.Yes+r.No, 0.1, "yes=%v", yes)
	}

	_, err := NewMarketRecord(SourcePolymarket, "k", "Title", 100.5)
	assert.Error(t, err)
}

func TestNewQuotedRecord(t *testing.T) {
	r, err := NewQuotedRecord(SourceKalshi, "KXFED", "Fed cut?", Quote{YesBid: 0, LastPrice: 41})
	require.NoError(t, err)
	assert.Equal(t, 41.0, r.Yes)
	assert.Equal(t, 59.0, r.No)

	r, err = NewQuotedRecord(SourceKalshi, "KXFED", "Fed cut?", Quote{YesBid: 40, NoBid: 57})
	require.NoError(t, err)
	assert.Equal(t, 40.0, r.Yes)
	assert.Equal(t, 57.0, r.No)
	assert.Equal(t, 57.0, r.Quote.NoBid)
}
