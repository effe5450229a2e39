// Package predictit es la fuente externa de PredictIt.
package predictit

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

const DefaultBaseURL = "https://www.predictit.org"

type allResponse struct {
	Markets []piMarket `json:"markets"`
}

type piMarket struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Contracts []piContract `json:"contracts"`
}

type piContract struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	LastTradePrice float64 `json:"lastTradePrice"` // fracción 0–1
}

// Client lee todos los contratos abiertos de PredictIt.
type Client struct {
	http    *httpx.Client
	baseURL string
}

// NewClient crea un Client. Si baseURL está vacío usa producción.
func NewClient(h *httpx.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: h, baseURL: baseURL}
}

// Name implementa ports.Source.
func (c *Client) Name() string { return string(domain.SourcePredictIt) }

// Fetch implementa ports.Source. Cada contrato abierto es un registro con título
// "mercado: contrato".
func (c *Client) Fetch(ctx context.Context) domain.FetchResult {
	var resp allResponse
	if err := c.http.Get(ctx, c.baseURL+"/api/marketdata/all/", &resp); err != nil {
		return domain.Degraded(c.Name(), "marketdata request failed", err)
	}

	var records []domain.MarketRecord
	seen := make(map[string]bool)
	skipped := 0
	for _, m := range resp.Markets {
		for _, ct := range m.Contracts {
			if ct.Status != "Open" {
				continue
			}
			key := domain.Normalize(m.Name + " " + ct.Name)
			if seen[key] {
				continue
			}
			rec, err := toRecord(key, m.Name+": "+ct.Name, ct.LastTradePrice)
			if err != nil {
				skipped++
				slog.Debug("predictit contract skipped", "market", m.Name, "contract", ct.Name, "err", err)
				continue
			}
			seen[key] = true
			records = append(records, rec)
		}
	}

	slog.Debug("predictit fetch complete", "contracts", len(records), "skipped", skipped)
	return domain.Fetched(c.Name(), records, skipped)
}

func toRecord(key, title string, lastTrade float64) (domain.MarketRecord, error) {
	yes, err := domain.ToPercentage(lastTrade, domain.FormatFraction)
	if err != nil {
		return domain.MarketRecord{}, err
	}
	return domain.NewMarketRecord(domain.SourcePredictIt, key, title, yes)
}
