package domain

import "fmt"

// RiskLimits son los umbrales del risk gate. Dinero en centavos.
type RiskLimits struct {
	CapitalCents        int64
	MinCashCents        int64
	MinSpread           float64
	MinROI              float64
	MinVolume           int64
	MinEdge             float64
	MaxDays             int
	MaxPositions        int
	MaxPositionFraction float64
}

// DefaultRiskLimits devuelve los límites para una cuenta de $100.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		CapitalCents:        10_000,
		MinCashCents:        600,
		MinSpread:           5,
		MinROI:              8,
		MinVolume:           1000,
		MinEdge:             3,
		MaxDays:             60,
		MaxPositions:        6,
		MaxPositionFraction: 0.60,
	}
}

// AccountState es la parte de la cuenta que mira el risk gate.
type AccountState struct {
	CashCents int64
}

// PortfolioState resume las posiciones abiertas.
type PortfolioState struct {
	OpenPositions      int
	PositionValueCents int64
}

// RiskDecision es el resultado del risk gate.
type RiskDecision struct {
	Approved bool
	Reason   string
}

const reasonPass = "PASS"

func reject(format string, args ...any) RiskDecision {
	return RiskDecision{Reason: fmt.Sprintf(format, args...)}
}

// EvaluateRisk aplica los checks en orden; el primero que falla decide.
// Función pura: sin I/O ni estado.
func EvaluateRisk(opp Opportunity, acct AccountState, pf PortfolioState, lim RiskLimits) RiskDecision {
	if acct.CashCents < lim.MinCashCents {
		return reject("Cash too low ($%.2f < $%.2f)", cents(acct.CashCents), cents(lim.MinCashCents))
	}
	if opp.Spread < lim.MinSpread {
		return reject("Spread %g < %g", opp.Spread, lim.MinSpread)
	}
	if opp.ROI < lim.MinROI {
		return reject("ROI %g%% < %g%%", opp.ROI, lim.MinROI)
	}
	if opp.Volume < lim.MinVolume {
		return reject("Volume %d < %d", opp.Volume, lim.MinVolume)
	}
	if opp.Edge < lim.MinEdge {
		return reject("Edge %g¢ < %g¢ (fees eat profit)", opp.Edge, lim.MinEdge)
	}
	if opp.DaysToResolution == 0 {
		return reject("Market closes today (too risky)")
	}
	if opp.DaysToResolution > lim.MaxDays {
		if !opp.DaysKnown() {
			return reject("Too long-term (unknown close date)")
		}
		return reject("Too long-term (%d days)", opp.DaysToResolution)
	}
	if pf.OpenPositions >= lim.MaxPositions {
		return reject("Max positions hit (%d >= %d)", pf.OpenPositions, lim.MaxPositions)
	}
	maxValue := float64(lim.CapitalCents) * lim.MaxPositionFraction
	if float64(pf.PositionValueCents) > maxValue {
		return reject("Position limit hit ($%.0f > $%.0f)", cents(pf.PositionValueCents), maxValue/100)
	}
	return RiskDecision{Approved: true, Reason: reasonPass}
}

func cents(c int64) float64 {
	return float64(c) / 100
}
