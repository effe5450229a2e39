package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// SignalKind clasifica un movimiento intradía.
type SignalKind string

const (
	MomentumUp SignalKind = "MOMENTUM_UP"
	Selloff    SignalKind = "SELLOFF"
)

// Snapshot es la foto intradía de un símbolo.
type Snapshot struct {
	Symbol     string
	Price      float64
	PrevClose  float64
	Volume     float64 // volumen de hoy
	PrevVolume float64 // volumen de la sesión anterior, como referencia de media
	VWAP       float64 // VWAP de la sesión; 0 si el feed no lo da
}

// MomentumParams son los umbrales del scanner de momentum.
type MomentumParams struct {
	MinChangePct  float64
	MinVolumeMult float64
	RequireVWAP   bool // MOMENTUM_UP exige precio ≥ VWAP
}

// DefaultMomentumParams: ±3% con volumen ≥ 1.5×.
func DefaultMomentumParams() MomentumParams {
	return MomentumParams{MinChangePct: 3, MinVolumeMult: 1.5}
}

// MomentumSignal es un símbolo que cumple los umbrales.
type MomentumSignal struct {
	Symbol     string
	Price      float64
	PrevClose  float64
	ChangePct  float64
	VolumeMult float64
	Volume     float64
	Kind       SignalKind
}

// ScanMomentum devuelve las señales ordenadas por |cambio| descendente.
func ScanMomentum(snaps []Snapshot, p MomentumParams) []MomentumSignal {
	var out []MomentumSignal
	for _, s := range snaps {
		if s.Price <= 0 || s.PrevClose <= 0 {
			continue
		}
		change := (s.Price - s.PrevClose) / s.PrevClose * 100
		mult := 0.0
		if s.PrevVolume > 0 {
			mult = s.Volume / s.PrevVolume
		}
		if mult < p.MinVolumeMult {
			continue
		}

		sig := MomentumSignal{
			Symbol:     s.Symbol,
			Price:      math.Round(s.Price*100) / 100,
			PrevClose:  math.Round(s.PrevClose*100) / 100,
			ChangePct:  math.Round(change*100) / 100,
			VolumeMult: Round1(mult),
			Volume:     s.Volume,
		}
		switch {
		case change >= p.MinChangePct:
			if p.RequireVWAP && s.VWAP > 0 && s.Price < s.VWAP {
				continue
			}
			sig.Kind = MomentumUp
		case change <= -p.MinChangePct:
			sig.Kind = Selloff
		default:
			continue
		}
		out = append(out, sig)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].ChangePct) > math.Abs(out[j].ChangePct)
	})
	return out
}

// EquityPosition es una posición de acciones tal como la reporta el broker.
type EquityPosition struct {
	Symbol          string
	Qty             decimal.Decimal
	AvgEntryPrice   float64
	CurrentPrice    float64
	UnrealizedPLPct float64 // fracción, −0.03 = −3%
}

// CheckEquityExits aplica stop-loss / take-profit sobre el P&L no realizado del broker.
func CheckEquityExits(positions []EquityPosition, lim ExitLimits) []ExitAction {
	var out []ExitAction
	for _, p := range positions {
		var kind ExitKind
		switch {
		case p.UnrealizedPLPct <= lim.StopLoss:
			kind = StopLoss
		case p.UnrealizedPLPct >= lim.TakeProfit:
			kind = TakeProfit
		default:
			continue
		}
		threshold := lim.StopLoss
		if kind == TakeProfit {
			threshold = lim.TakeProfit
		}
		out = append(out, ExitAction{
			Ticker:       p.Symbol,
			Kind:         kind,
			Count:        p.Qty.IntPart(),
			EntryPrice:   p.AvgEntryPrice,
			CurrentPrice: p.CurrentPrice,
			PnLPct:       math.Round(p.UnrealizedPLPct*10000) / 100,
			Reason:       fmt.Sprintf("Hit %s (%g%%)", kind, Round1(threshold*100)),
		})
	}
	return out
}

// NotionalBudget calcula el importe de una compra: min(equity×fraction, cash − buffer).
// Devuelve false si queda por debajo de minNotional.
func NotionalBudget(equity, cash decimal.Decimal, fraction float64, buffer, minNotional decimal.Decimal) (decimal.Decimal, bool) {
	byEquity := equity.Mul(decimal.NewFromFloat(fraction))
	byCash := cash.Sub(buffer)
	spend := decimal.Min(byEquity, byCash).Round(2)
	if spend.LessThan(minNotional) {
		return decimal.Zero, false
	}
	return spend, true
}
