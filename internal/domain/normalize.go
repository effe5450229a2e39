package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ErrInvalidOdds se devuelve cuando una cuota americana no es convertible (0, NaN, Inf).
var ErrInvalidOdds = errors.New("invalid american odds")

var nonMatchable = regexp.MustCompile(`[^a-z0-9 ]+`)

// Normalize pasa a minúsculas, elimina todo lo que no sea [a-z0-9 ] y recorta espacios.
func Normalize(text string) string {
	return strings.TrimSpace(nonMatchable.ReplaceAllString(strings.ToLower(text), ""))
}

// PriceFormat es la representación de precio que usa una fuente.
type PriceFormat int

const (
	FormatFraction PriceFormat = iota // 0–1, p.ej. outcomePrices de Polymarket o lastTradePrice de PredictIt
	FormatAmerican                    // cuotas americanas, p.ej. +150 / -200
	FormatCents                       // ya en 0–100
)

func (f PriceFormat) String() string {
	switch f {
	case FormatFraction:
		return "fraction"
	case FormatAmerican:
		return "american"
	case FormatCents:
		return "cents"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ToPercentage convierte un precio de la fuente a la escala común 0–100, redondeado a 1 decimal.
func ToPercentage(raw float64, format PriceFormat) (float64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("domain.ToPercentage: %s price is not finite", format)
	}
	switch format {
	case FormatFraction:
		if raw < 0 || raw > 1 {
			return 0, fmt.Errorf("domain.ToPercentage: fraction %.4f out of [0,1]", raw)
		}
		return Round1(raw * 100), nil
	case FormatCents:
		if raw < 0 || raw > 100 {
			return 0, fmt.Errorf("domain.ToPercentage: cents %.2f out of [0,100]", raw)
		}
		return Round1(raw), nil
	case FormatAmerican:
		return AmericanToProb(raw)
	default:
		return 0, fmt.Errorf("domain.ToPercentage: unknown format %s", format)
	}
}

// AmericanToProb convierte cuotas americanas a probabilidad implícita en puntos porcentuales.
//
//	O > 0: 100/(O+100)×100
//	O < 0: |O|/(|O|+100)×100
func AmericanToProb(odds float64) (float64, error) {
	if odds == 0 || math.IsNaN(odds) || math.IsInf(odds, 0) {
		return 0, fmt.Errorf("domain.AmericanToProb: %v: %w", odds, ErrInvalidOdds)
	}
	if odds > 0 {
		return Round1(100 / (odds + 100) * 100), nil
	}
	a := math.Abs(odds)
	return Round1(a / (a + 100) * 100), nil
}

// Round1 redondea a 1 decimal.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
