package domain

// MatchRule empareja un mercado primario con uno externo por palabras clave.
// Todas las keywords de cada lado son obligatorias (substring, case-insensitive).
type MatchRule struct {
	Name             string
	PrimaryKeywords  []string
	ExternalKeywords []string
}

// DefaultRules devuelve la tabla de reglas en orden de evaluación.
// Solo pares explícitos: nada de fuzzy matching.
func DefaultRules() []MatchRule {
	return []MatchRule{
		// economía
		{"CPI > 0.0% Jan 2026", []string{"cpi", "0.0", "january", "2026"}, []string{"cpi", "january"}},
		{"CPI > 0.3% Jan 2026", []string{"cpi", "0.3", "january", "2026"}, []string{"cpi", "0.3"}},
		{"Fed Rate Cut March", []string{"fed", "rate", "march"}, []string{"fed", "rate", "march"}},
		{"Fed Rate Cut", []string{"fed", "rate", "cut"}, []string{"fed", "rate", "cut"}},
		{"Recession 2026", []string{"recession", "2026"}, []string{"recession"}},
		{"GDP Growth", []string{"gdp", "growth"}, []string{"gdp"}},
		{"Jobs Report", []string{"jobs", "report"}, []string{"jobs", "nonfarm"}},
		{"Powell Leaves", []string{"powell", "leave"}, []string{"powell", "resign"}},

		// política
		{"Trump Ends Fed", []string{"trump", "end", "federal reserve"}, []string{"trump", "federal reserve"}},
		{"DOGE Cuts >$250B", []string{"government spending", "decrease", "250"}, []string{"doge", "250"}},
		{"DOGE Cuts $1T", []string{"government spending", "decrease", "1000"}, []string{"doge", "trillion"}},
		{"Trump Buys Greenland", []string{"trump", "greenland"}, []string{"trump", "greenland"}},
		{"Government Shutdown", []string{"government", "shutdown"}, []string{"government", "shutdown"}},
		{"Trump Impeachment", []string{"trump", "impeach"}, []string{"trump", "impeach"}},
		{"Dems Win House 2026", []string{"democrat", "win", "house", "2026"}, []string{"democrat", "house", "2026"}},
		{"Reps Win House 2026", []string{"republican", "win", "house", "2026"}, []string{"republican", "house", "2026"}},
		{"Dems Win Senate 2026", []string{"democrat", "win", "senate", "2026"}, []string{"democrat", "senate", "2026"}},
		{"TikTok Ban", []string{"tiktok", "ban"}, []string{"tiktok", "ban"}},
		{"Comey Arrested", []string{"comey", "arrest"}, []string{"comey", "arrest"}},

		// crypto / finanzas
		{"Bitcoin >$150K", []string{"bitcoin", "150"}, []string{"bitcoin", "150"}},
		{"Bitcoin >$100K", []string{"bitcoin", "100"}, []string{"bitcoin", "100"}},
		{"Ethereum >$5K", []string{"ethereum", "5000"}, []string{"ethereum", "5000"}},
		{"S&P 500 Close", []string{"s&p", "close"}, []string{"sp500", "close"}},

		// deportes (específicos)
		{"Super Bowl Winner", []string{"super bowl", "winner"}, []string{"super bowl", "winner"}},
		{"Super Bowl MVP", []string{"super bowl", "mvp"}, []string{"super bowl", "mvp"}},
		{"NBA Champion", []string{"nba", "champion"}, []string{"nba", "champion"}},
		{"World Series", []string{"world series"}, []string{"world series"}},
		{"Stanley Cup", []string{"stanley cup"}, []string{"stanley cup"}},

		// entretenimiento
		{"Best Picture Oscar", []string{"best picture", "oscar"}, []string{"best picture", "oscar"}},

		// clima
		{"Hurricane Season", []string{"hurricane", "season"}, []string{"hurricane"}},
		{"Temperature Record", []string{"temperature", "record"}, []string{"temperature"}},
	}
}

// ModelRule compara un mercado primario con la probabilidad del modelo para un umbral.
type ModelRule struct {
	Name      string
	Keywords  []string
	Threshold float64
}

// DefaultModelRules son los mercados de CPI mensual que se comparan contra el modelo.
func DefaultModelRules() []ModelRule {
	return []ModelRule{
		{Name: "CPI MoM > 0.0% (model)", Keywords: []string{"cpi", "0.0"}, Threshold: 0.0},
		{Name: "CPI MoM > 0.1% (model)", Keywords: []string{"cpi", "0.1"}, Threshold: 0.1},
		{Name: "CPI MoM > 0.2% (model)", Keywords: []string{"cpi", "0.2"}, Threshold: 0.2},
		{Name: "CPI MoM > 0.3% (model)", Keywords: []string{"cpi", "0.3"}, Threshold: 0.3},
		{Name: "CPI MoM > 0.4% (model)", Keywords: []string{"cpi", "0.4"}, Threshold: 0.4},
	}
}
