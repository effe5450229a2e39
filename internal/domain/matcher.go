package domain

import (
	"math"
	"strings"
)

// ExternalPolicy decide qué match externo se queda cuando varias fuentes coinciden.
type ExternalPolicy int

const (
	// ExternalFirst: el primer match externo (en el orden de las fuentes) gana.
	ExternalFirst ExternalPolicy = iota
	// ExternalDecisive: una fuente posterior reemplaza al candidato solo si su
	// precio YES está más lejos de 50.
	ExternalDecisive
)

// ParseExternalPolicy acepta "first" o "decisive". Cualquier otro valor es ExternalFirst.
func ParseExternalPolicy(s string) ExternalPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "decisive") {
		return ExternalDecisive
	}
	return ExternalFirst
}

func (p ExternalPolicy) String() string {
	if p == ExternalDecisive {
		return "decisive"
	}
	return "first"
}

// Candidate es un par primario/externo encontrado por una regla.
type Candidate struct {
	Rule     MatchRule
	Primary  MarketRecord
	External MarketRecord
}

// Matcher aplica una tabla de MatchRule sobre los registros de cada fuente.
type Matcher struct {
	policy ExternalPolicy
}

// NewMatcher crea un Matcher con la política externa dada.
func NewMatcher(policy ExternalPolicy) *Matcher {
	return &Matcher{policy: policy}
}

// Match devuelve como máximo un candidato por regla, en el orden de la tabla.
// Dentro de cada lista gana el primer registro que contiene todas las keywords.
func (m *Matcher) Match(primary []MarketRecord, rules []MatchRule, externals [][]MarketRecord) []Candidate {
	var out []Candidate
	for _, rule := range rules {
		p, ok := firstMatch(primary, rule.PrimaryKeywords)
		if !ok {
			continue
		}

		var best MarketRecord
		found := false
		for _, source := range externals {
			ext, ok := firstMatch(source, rule.ExternalKeywords)
			if !ok {
				continue
			}
			if !found {
				best, found = ext, true
				if m.policy == ExternalFirst {
					break
				}
				continue
			}
			if m.policy == ExternalDecisive && decisiveness(ext) > decisiveness(best) {
				best = ext
			}
		}
		if !found {
			continue
		}

		out = append(out, Candidate{Rule: rule, Primary: p, External: best})
	}
	return out
}

// MatchModel busca, para cada ModelRule, el primer mercado primario que la cumple.
func (m *Matcher) MatchModel(primary []MarketRecord, rules []ModelRule) map[string]MarketRecord {
	out := make(map[string]MarketRecord, len(rules))
	for _, rule := range rules {
		if p, ok := firstMatch(primary, rule.Keywords); ok {
			out[rule.Name] = p
		}
	}
	return out
}

func firstMatch(records []MarketRecord, keywords []string) (MarketRecord, bool) {
	for _, r := range records {
		if ContainsAll(r, keywords) {
			return r, true
		}
	}
	return MarketRecord{}, false
}

// ContainsAll indica si el título del registro contiene todas las keywords.
// Se compara contra el título en minúsculas y, si no aparece, contra el normalizado,
// de modo que "s&p" y "0.3" siguen funcionando sobre títulos crudos.
func ContainsAll(r MarketRecord, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(r.RawTitle)
	for _, kw := range keywords {
		k := strings.ToLower(kw)
		if strings.Contains(lower, k) {
			continue
		}
		if r.NormalizedTitle != "" && strings.Contains(r.NormalizedTitle, k) {
			continue
		}
		return false
	}
	return true
}

func decisiveness(r MarketRecord) float64 {
	return math.Abs(r.Yes - 50)
}
