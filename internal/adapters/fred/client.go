// Package fred lee series económicas de FRED (St. Louis Fed) para el modelo de probabilidad.
package fred

import "github.com/alejandrodnm/arbgate/internal/adapters/httpx"

const (
	DefaultBaseURL = "https://api.stlouisfed.org"
	DefaultSeries  = "CPIAUCSL"

	// 61 niveles → 60 variaciones mensuales
	defaultObservations = 61
)

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"` // "." cuando no hay dato
}

// Client obtiene observaciones de una serie.
type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
	series  string
	limit   int
}

// NewClient crea un Client para la serie dada (CPIAUCSL si está vacía).
func NewClient(h *httpx.Client, baseURL, apiKey, series string, limit int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if series == "" {
		series = DefaultSeries
	}
	if limit <= 0 {
		limit = defaultObservations
	}
	return &Client{http: h, baseURL: baseURL, apiKey: apiKey, series: series, limit: limit}
}
