// Package polymarket es la fuente externa de Polymarket (API Gamma).
package polymarket

import (
	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

const (
	DefaultGammaBase = "https://gamma-api.polymarket.com"

	gammaMarketsPath = "/markets"
	gammaPageSize    = 200

	// Gamma /markets: 300/10s → 180/10s al 60% → 18/s
	GammaRatePerSec = 18
)

// Client lee mercados abiertos de Gamma.
type Client struct {
	http      *httpx.Client
	gammaBase string
}

// NewClient crea un Client. Si gammaBase está vacío usa producción.
func NewClient(h *httpx.Client, gammaBase string) *Client {
	if gammaBase == "" {
		gammaBase = DefaultGammaBase
	}
	return &Client{http: h, gammaBase: gammaBase}
}

// Name implementa ports.Source.
func (c *Client) Name() string { return string(domain.SourcePolymarket) }
