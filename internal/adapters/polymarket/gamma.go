package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Fetch implementa ports.Source con una sola página de mercados abiertos.
// Los mercados con precios ilegibles se descartan y se cuentan en Skipped.
func (c *Client) Fetch(ctx context.Context) domain.FetchResult {
	url := fmt.Sprintf("%s%s?closed=false&limit=%d", c.gammaBase, gammaMarketsPath, gammaPageSize)

	var resp gammaMarketsResponse
	if err := c.http.Get(ctx, url, &resp); err != nil {
		return domain.Degraded(c.Name(), "gamma markets request failed", err)
	}

	records := make([]domain.MarketRecord, 0, len(resp))
	seen := make(map[string]bool, len(resp))
	skipped := 0
	for _, gm := range resp {
		if gm.Closed {
			continue
		}
		rec, err := toRecord(gm)
		if err != nil {
			skipped++
			slog.Debug("polymarket market skipped", "question", gm.Question, "err", err)
			continue
		}
		if seen[rec.Key] {
			continue
		}
		seen[rec.Key] = true
		records = append(records, rec)
	}

	slog.Debug("polymarket fetch complete", "markets", len(records), "skipped", skipped)
	return domain.Fetched(c.Name(), records, skipped)
}
