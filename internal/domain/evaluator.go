package domain

import (
	"math"
	"sort"
	"time"
)

// EvalParams controla el filtro de spread y la banda ambigua.
type EvalParams struct {
	MinSpread float64 // spread mínimo en puntos
	Band      float64 // |primario − externo| ≤ Band no opera
}

// DefaultScanParams son los parámetros de los scans informativos.
func DefaultScanParams() EvalParams {
	return EvalParams{MinSpread: 3, Band: 3}
}

// Evaluate calcula spread, dirección, edge y ROI de un par primario/externo.
// Devuelve false si el spread es menor al mínimo o cae en la banda ambigua.
func Evaluate(rule string, primary, external MarketRecord, p EvalParams, now time.Time) (Opportunity, bool) {
	k := primary.Yes
	e := external.Yes
	spread := math.Abs(k - e)
	if spread < p.MinSpread {
		return Opportunity{}, false
	}

	var (
		dir  Direction
		edge float64
		cost float64
	)
	switch {
	case k > e+p.Band:
		dir, edge, cost = BuyNo, k-e, primary.No
	case e > k+p.Band:
		dir, edge, cost = BuyYes, e-k, primary.Yes
	default:
		return Opportunity{}, false
	}

	roi := 0.0
	if cost > 0 {
		roi = Round1(edge / cost * 100)
	}

	return Opportunity{
		RuleName:         rule,
		Primary:          primary,
		External:         external,
		Spread:           Round1(spread),
		Direction:        dir,
		Edge:             Round1(edge),
		EntryCost:        cost,
		ROI:              roi,
		DaysToResolution: DaysToResolution(primary.CloseTime, now),
		Volume:           primary.Volume,
	}, true
}

// EvaluateCandidates evalúa todos los candidatos y los ordena por spread descendente.
func EvaluateCandidates(cands []Candidate, p EvalParams, now time.Time) []Opportunity {
	opps := make([]Opportunity, 0, len(cands))
	for _, c := range cands {
		if opp, ok := Evaluate(c.Rule.Name, c.Primary, c.External, p, now); ok {
			opps = append(opps, opp)
		}
	}
	RankBySpread(opps)
	return opps
}

// DaysToResolution devuelve los días completos hasta el cierre, con mínimo 0.
// Sin fecha de cierre devuelve DaysUnknown.
func DaysToResolution(closeTime *time.Time, now time.Time) int {
	if closeTime == nil || closeTime.IsZero() {
		return DaysUnknown
	}
	d := closeTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// RankBySpread ordena por spread descendente conservando el orden de la tabla en empates.
func RankBySpread(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Spread > opps[j].Spread
	})
}
