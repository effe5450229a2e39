package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrNoHistory se devuelve al construir un modelo sin observaciones.
var ErrNoHistory = errors.New("empty history")

// FallbackStdDev se usa cuando la historia tiene un único punto y la
// desviación muestral no está definida.
const FallbackStdDev = 0.1

// Weights son los pesos de la mezcla empírica/gaussiana. Heurísticos, no derivados.
type Weights struct {
	Empirical float64
	Gaussian  float64
}

// DefaultWeights devuelve la mezcla 60/40.
func DefaultWeights() Weights {
	return Weights{Empirical: 0.6, Gaussian: 0.4}
}

// DefaultThresholds son los umbrales de variación mensual (en %) que se tabulan.
func DefaultThresholds() []float64 {
	return []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5}
}

// ProbabilityModel es la tabla umbral → probabilidad de una serie.
// Se reconstruye entera en cada run.
type ProbabilityModel struct {
	History    []float64
	Mean       float64
	StdDev     float64
	Thresholds map[float64]float64
	weights    Weights
}

// BuildModel calcula media y desviación de history y tabula cada umbral.
func BuildModel(history, thresholds []float64, w Weights) (ProbabilityModel, error) {
	if len(history) == 0 {
		return ProbabilityModel{}, fmt.Errorf("domain.BuildModel: %w", ErrNoHistory)
	}

	mean, sd := meanStdDev(history)
	m := ProbabilityModel{
		History:    append([]float64(nil), history...),
		Mean:       mean,
		StdDev:     sd,
		Thresholds: make(map[float64]float64, len(thresholds)),
		weights:    w,
	}
	for _, t := range thresholds {
		m.Thresholds[t] = m.Blended(t)
	}
	return m, nil
}

// meanStdDev usa el algoritmo de Welford; con un solo punto devuelve FallbackStdDev.
func meanStdDev(xs []float64) (mean, sd float64) {
	var m2 float64
	for i, x := range xs {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	if len(xs) < 2 {
		return mean, FallbackStdDev
	}
	return mean, math.Sqrt(m2 / float64(len(xs)-1))
}

// Empirical es el % de observaciones estrictamente mayores que t.
func (m ProbabilityModel) Empirical(t float64) float64 {
	if len(m.History) == 0 {
		return 0
	}
	n := 0
	for _, x := range m.History {
		if x > t {
			n++
		}
	}
	return float64(n) / float64(len(m.History)) * 100
}

// Gaussian es (1 − Φ((t − mean)/sd)) × 100. Con sd == 0 es un escalón en la media.
func (m ProbabilityModel) Gaussian(t float64) float64 {
	if m.StdDev == 0 {
		if t < m.Mean {
			return 100
		}
		return 0
	}
	return (1 - NormalCDF((t-m.Mean)/m.StdDev)) * 100
}

// Blended mezcla ambas estimaciones con los pesos del modelo, a 1 decimal.
func (m ProbabilityModel) Blended(t float64) float64 {
	return Round1(m.weights.Empirical*m.Empirical(t) + m.weights.Gaussian*m.Gaussian(t))
}

// Probability devuelve la probabilidad tabulada para t.
func (m ProbabilityModel) Probability(t float64) (float64, bool) {
	p, ok := m.Thresholds[t]
	return p, ok
}

// SortedThresholds devuelve los umbrales tabulados en orden ascendente.
func (m ProbabilityModel) SortedThresholds() []float64 {
	ts := make([]float64, 0, len(m.Thresholds))
	for t := range m.Thresholds {
		ts = append(ts, t)
	}
	sort.Float64s(ts)
	return ts
}

// AsRecord expone la probabilidad del umbral como un registro externo, para
// compararlo contra un mercado con Evaluate.
func (m ProbabilityModel) AsRecord(series string, threshold float64) (MarketRecord, error) {
	p, ok := m.Probability(threshold)
	if !ok {
		p = m.Blended(threshold)
	}
	title := fmt.Sprintf("%s > %.1f%%", series, threshold)
	return NewMarketRecord(SourceModel, fmt.Sprintf("%s:%.1f", series, threshold), title, p)
}

// NormalCDF es la función de distribución de la normal estándar.
func NormalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// PercentChanges convierte una serie de niveles en variaciones periodo a periodo (%).
// Los niveles no positivos se saltan porque no admiten variación relativa.
func PercentChanges(levels []float64) []float64 {
	var out []float64
	prev := 0.0
	for _, v := range levels {
		if prev > 0 && v > 0 {
			out = append(out, (v-prev)/prev*100)
		}
		if v > 0 {
			prev = v
		}
	}
	return out
}

// EvaluateModel compara los mercados emparejados con las probabilidades del modelo.
func EvaluateModel(series string, model ProbabilityModel, rules []ModelRule, matched map[string]MarketRecord, p EvalParams, now time.Time) []Opportunity {
	var opps []Opportunity
	for _, rule := range rules {
		primary, ok := matched[rule.Name]
		if !ok {
			continue
		}
		ext, err := model.AsRecord(series, rule.Threshold)
		if err != nil {
			continue
		}
		if opp, ok := Evaluate(rule.Name, primary, ext, p, now); ok {
			opps = append(opps, opp)
		}
	}
	return opps
}
