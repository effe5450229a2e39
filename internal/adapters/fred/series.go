package fred

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"strconv"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Series implementa ports.SeriesSource: los últimos niveles en orden cronológico.
func (c *Client) Series(ctx context.Context) domain.SeriesResult {
	if c.apiKey == "" {
		return domain.SeriesResult{Series: c.series, Reason: "no API key configured"}
	}

	params := url.Values{}
	params.Set("series_id", c.series)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", strconv.Itoa(c.limit))

	var resp observationsResponse
	if err := c.http.Get(ctx, c.baseURL+"/fred/series/observations?"+params.Encode(), &resp); err != nil {
		return domain.SeriesResult{Series: c.series, Reason: "observations request failed", Err: err}
	}

	values := make([]float64, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	slices.Reverse(values)

	slog.Debug("fred series fetched", "series", c.series, "observations", len(values))
	return domain.SeriesResult{Series: c.series, Values: values}
}
