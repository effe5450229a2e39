package domain

// FetchResult es el resultado explícito de consultar una fuente: o registros,
// o vacío con el motivo. Una fuente caída nunca aborta el run.
type FetchResult struct {
	Source  string
	Records []MarketRecord
	Skipped int    // registros descartados por parseo o filtros
	Reason  string // motivo cuando la fuente queda vacía por error
	Err     error
}

// Fetched construye un resultado exitoso.
func Fetched(source string, records []MarketRecord, skipped int) FetchResult {
	return FetchResult{Source: source, Records: records, Skipped: skipped}
}

// Degraded construye un resultado vacío con motivo.
func Degraded(source, reason string, err error) FetchResult {
	return FetchResult{Source: source, Reason: reason, Err: err}
}

// OK indica si la fuente respondió.
func (r FetchResult) OK() bool {
	return r.Err == nil && r.Reason == ""
}

// SeriesResult es el equivalente de FetchResult para series históricas.
type SeriesResult struct {
	Series string
	Values []float64 // niveles en orden cronológico, el más reciente al final
	Reason string
	Err    error
}

// OK indica si la serie se obtuvo.
func (r SeriesResult) OK() bool {
	return r.Err == nil && r.Reason == ""
}
