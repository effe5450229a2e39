package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// toRecord convierte un mercado de Gamma: yes = outcomePrices[0] × 100.
func toRecord(gm gammaMarket) (domain.MarketRecord, error) {
	var prices []string
	if err := json.Unmarshal([]byte(gm.OutcomePrices), &prices); err != nil {
		return domain.MarketRecord{}, fmt.Errorf("outcomePrices %q: %w", gm.OutcomePrices, err)
	}
	if len(prices) < 2 {
		return domain.MarketRecord{}, fmt.Errorf("outcomePrices %q: need 2 outcomes", gm.OutcomePrices)
	}
	raw, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return domain.MarketRecord{}, fmt.Errorf("outcomePrices[0] %q: %w", prices[0], err)
	}
	yes, err := domain.ToPercentage(raw, domain.FormatFraction)
	if err != nil {
		return domain.MarketRecord{}, err
	}

	rec, err := domain.NewMarketRecord(domain.SourcePolymarket, domain.Normalize(gm.Question), gm.Question, yes)
	if err != nil {
		return domain.MarketRecord{}, err
	}
	if v, err := gm.Volume.Float64(); err == nil {
		rec = rec.WithVolume(int64(v))
	}
	if t, err := time.Parse("2006-01-02", gm.EndDateISO); err == nil {
		rec = rec.WithCloseTime(t)
	}
	return rec, nil
}
