package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snaps() []Snapshot {
	return []Snapshot{
		{Symbol: "AAPL", Price: 104, PrevClose: 100, Volume: 300, PrevVolume: 100, VWAP: 105},
		{Symbol: "TSLA", Price: 190, PrevClose: 200, Volume: 200, PrevVolume: 100},
		{Symbol: "MSFT", Price: 102, PrevClose: 100, Volume: 900, PrevVolume: 100},
		{Symbol: "NVDA", Price: 110, PrevClose: 100, Volume: 100, PrevVolume: 100},
		{Symbol: "BAD", Price: 0, PrevClose: 100, Volume: 900, PrevVolume: 100},
	}
}

func TestScanMomentum(t *testing.T) {
	sigs := ScanMomentum(snaps(), DefaultMomentumParams())
	require.Len(t, sigs, 2)

	assert.Equal(t, "TSLA", sigs[0].Symbol)
	assert.Equal(t, Selloff, sigs[0].Kind)
	assert.InDelta(t, -5.0, sigs[0].ChangePct, 1e-9)

	assert.Equal(t, "AAPL", sigs[1].Symbol)
	assert.Equal(t, MomentumUp, sigs[1].Kind)
	assert.Equal(t, 3.0, sigs[1].VolumeMult)
}

func TestScanMomentum_VWAPFilter(t *testing.T) {
	p := DefaultMomentumParams()
	p.RequireVWAP = true
	sigs := ScanMomentum(snaps(), p)
	require.Len(t, sigs, 1)
	assert.Equal(t, "TSLA", sigs[0].Symbol, "AAPL cotiza bajo VWAP")
}

func TestCheckEquityExits(t *testing.T) {
	positions := []EquityPosition{
		{Symbol: "AAPL", Qty: decimal.NewFromInt(3), AvgEntryPrice: 100, CurrentPrice: 84, UnrealizedPLPct: -0.16},
		{Symbol: "TSLA", Qty: decimal.NewFromInt(1), AvgEntryPrice: 200, CurrentPrice: 250, UnrealizedPLPct: 0.25},
		{Symbol: "MSFT", Qty: decimal.NewFromInt(2), AvgEntryPrice: 300, CurrentPrice: 303, UnrealizedPLPct: 0.01},
	}
	exits := CheckEquityExits(positions, DefaultExitLimits())
	require.Len(t, exits, 2)
	assert.Equal(t, StopLoss, exits[0].Kind)
	assert.Equal(t, "Hit STOP_LOSS (-15%)", exits[0].Reason)
	assert.Equal(t, -16.0, exits[0].PnLPct)
	assert.Equal(t, int64(3), exits[0].Count)
	assert.Equal(t, TakeProfit, exits[1].Kind)
	assert.Equal(t, "Hit TAKE_PROFIT (20%)", exits[1].Reason)
}

func TestNotionalBudget(t *testing.T) {
	five := decimal.NewFromInt(5)
	ten := decimal.NewFromInt(10)

	spend, ok := NotionalBudget(decimal.NewFromInt(1000), decimal.NewFromInt(300), 0.5, five, ten)
	require.True(t, ok)
	assert.True(t, spend.Equal(decimal.NewFromInt(295)), spend.String())

	spend, ok = NotionalBudget(decimal.NewFromInt(100), decimal.NewFromInt(300), 0.5, five, ten)
	require.True(t, ok)
	assert.True(t, spend.Equal(decimal.NewFromInt(50)), spend.String())

	_, ok = NotionalBudget(decimal.NewFromInt(1000), decimal.NewFromInt(14), 0.5, five, ten)
	assert.False(t, ok)
}
