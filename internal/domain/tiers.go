package domain

import (
	"fmt"
	"sort"
	"time"
)

// Tier agrupa mercados por horizonte hasta la resolución.
type Tier int

const (
	TierShort  Tier = 1 // ≤ 30 días
	TierMedium Tier = 2 // ≤ 90 días
	TierLong   Tier = 3
	TierSpread Tier = 4 // market making, independiente del horizonte
)

func (t Tier) String() string {
	switch t {
	case TierShort:
		return "SHORT-TERM"
	case TierMedium:
		return "MEDIUM-TERM"
	case TierLong:
		return "LONG-TERM"
	case TierSpread:
		return "WIDE SPREAD"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// TierParams son los umbrales del scanner de mercado único.
type TierParams struct {
	FeeCents        float64
	MinEdge         float64
	MinVolume       int64
	MinVolumeShort  int64
	MediumMinVolume int64
	LongMinVolume   int64
	LongMinEdge     float64
	SpreadMinWidth  float64
	SpreadMinVolume int64
	CapitalCents    int64
	MaxPositionFrac float64
}

// DefaultTierParams devuelve los umbrales por defecto.
func DefaultTierParams() TierParams {
	return TierParams{
		FeeCents:        2,
		MinEdge:         3,
		MinVolume:       1000,
		MinVolumeShort:  500,
		MediumMinVolume: 5000,
		LongMinVolume:   50000,
		LongMinEdge:     5,
		SpreadMinWidth:  5,
		SpreadMinVolume: 10000,
		CapitalCents:    10_000,
		MaxPositionFrac: 0.20,
	}
}

// TierSignal es una oportunidad de un solo mercado.
type TierSignal struct {
	Tier      Tier
	Side      Side // vacío para TierSpread
	Ticker    string
	Title     string
	Days      int
	Cost      float64 // centavos por contrato
	Potential float64 // centavos de beneficio por contrato, neto de fees
	ROI       float64
	Contracts int64
	Volume    int64
}

// Action describe la señal en una línea.
func (s TierSignal) Action() string {
	if s.Tier == TierSpread {
		return fmt.Sprintf("Market making: quote inside %.0f¢ spread", s.Potential)
	}
	return fmt.Sprintf("BUY %s at %.0f¢ → %.0f¢ profit in %d days", sideLabel(s.Side), s.Cost, s.Potential, s.Days)
}

func sideLabel(s Side) string {
	if s == SideNo {
		return "NO"
	}
	return "YES"
}

type tierBand struct {
	noMaxAsk  float64 // YES ask ≤ este valor → NO de alta confianza
	yesMinBid float64 // YES bid ≥ este valor → YES de alta confianza
	minVolume int64
	minEdge   float64
}

// ScanTiers busca mercados casi decididos por horizonte y spreads anchos.
func ScanTiers(records []MarketRecord, p TierParams, now time.Time) []TierSignal {
	bands := map[Tier]tierBand{
		TierShort:  {noMaxAsk: 15, yesMinBid: 85, minEdge: p.MinEdge},
		TierMedium: {noMaxAsk: 10, yesMinBid: 90, minVolume: p.MediumMinVolume, minEdge: p.MinEdge},
		TierLong:   {noMaxAsk: 8, yesMinBid: 92, minVolume: p.LongMinVolume, minEdge: p.LongMinEdge},
	}

	var out []TierSignal
	for _, r := range records {
		days := DaysToResolution(r.CloseTime, now)
		minVol := p.MinVolume
		if days <= 30 {
			minVol = p.MinVolumeShort
		}
		if r.Volume < minVol {
			continue
		}

		tier := TierLong
		switch {
		case days <= 30:
			tier = TierShort
		case days <= 90:
			tier = TierMedium
		}
		band := bands[tier]
		q := r.Quote

		base := TierSignal{Tier: tier, Ticker: r.Key, Title: r.RawTitle, Days: days, Volume: r.Volume}
		if r.Volume >= band.minVolume {
			if q.YesAsk > 0 && q.YesAsk <= band.noMaxAsk {
				s := base
				s.Side = SideNo
				s.Cost = 100 - q.YesBid
				s.Potential = q.YesBid - p.FeeCents
				if s.Potential >= band.minEdge && s.Cost > 0 {
					s.ROI = Round1(s.Potential / s.Cost * 100)
					s.Contracts = contractsFor(p, s.Cost)
					out = append(out, s)
				}
			}
			if q.YesBid >= band.yesMinBid && q.YesAsk > 0 {
				s := base
				s.Side = SideYes
				s.Cost = q.YesAsk
				s.Potential = (100 - q.YesAsk) - p.FeeCents
				if s.Potential >= band.minEdge {
					s.ROI = Round1(s.Potential / s.Cost * 100)
					s.Contracts = contractsFor(p, s.Cost)
					out = append(out, s)
				}
			}
		}

		if q.YesAsk > 0 && q.YesBid > 0 {
			width := q.YesAsk - q.YesBid
			if width >= p.SpreadMinWidth && r.Volume >= p.SpreadMinVolume && days <= 90 {
				s := base
				s.Tier = TierSpread
				s.Potential = width
				out = append(out, s)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Potential > out[j].Potential
	})
	return out
}

func contractsFor(p TierParams, cost float64) int64 {
	if cost <= 0 {
		return 0
	}
	budget := float64(p.CapitalCents) * p.MaxPositionFrac
	return int64(budget / cost)
}
