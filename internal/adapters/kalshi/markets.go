package kalshi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Fetch implementa ports.Source: mercados abiertos con volumen ≥ minVolume que
// cierran dentro del horizonte. Un fallo a mitad de paginación devuelve lo
// acumulado hasta entonces.
func (c *Client) Fetch(ctx context.Context) domain.FetchResult {
	cutoff := c.now().Add(time.Duration(c.maxDays) * 24 * time.Hour)
	seen := make(map[string]bool)
	var records []domain.MarketRecord
	skipped := 0

	var cursor string
	for page := 0; page < maxScanPages; page++ {
		resp, err := c.events(ctx, cursor)
		if err != nil {
			if page == 0 {
				return domain.Degraded(c.Name(), "events request failed", err)
			}
			slog.Warn("kalshi page failed, keeping partial results", "page", page, "err", err)
			break
		}

		for _, ev := range resp.Events {
			for _, m := range ev.Markets {
				if seen[m.Ticker] {
					continue
				}
				closeAt, ok := parseClose(m.CloseTime)
				if m.Volume < c.minVolume || !ok || closeAt.After(cutoff) {
					continue
				}
				rec, err := toRecord(m, ev.Category, closeAt)
				if err != nil {
					skipped++
					slog.Debug("kalshi market skipped", "ticker", m.Ticker, "err", err)
					continue
				}
				seen[m.Ticker] = true
				c.titles[m.Title] = m.Ticker
				records = append(records, rec)
			}
		}

		cursor = resp.Cursor
		if cursor == "" {
			break
		}
	}

	slog.Debug("kalshi fetch complete", "markets", len(records), "skipped", skipped)
	return domain.Fetched(c.Name(), records, skipped)
}

// Market implementa ports.Broker.
func (c *Client) Market(ctx context.Context, ticker string) (domain.MarketRecord, error) {
	var resp marketResponse
	u := c.baseURL + "/markets/" + url.PathEscape(ticker)
	if err := c.http.Get(ctx, u, &resp); err != nil {
		return domain.MarketRecord{}, fmt.Errorf("kalshi.Market %s: %w", ticker, checkStatus(err))
	}
	closeAt, _ := parseClose(resp.Market.CloseTime)
	rec, err := toRecord(resp.Market, "", closeAt)
	if err != nil {
		return domain.MarketRecord{}, fmt.Errorf("kalshi.Market %s: %w", ticker, err)
	}
	return rec, nil
}

// FindTicker busca el ticker por título exacto: primero en los mercados del
// último Fetch y, si no está, paginando /events.
func (c *Client) FindTicker(ctx context.Context, title string) (string, error) {
	if t, ok := c.titles[title]; ok {
		return t, nil
	}

	var cursor string
	for page := 0; page < maxLookupPages; page++ {
		resp, err := c.events(ctx, cursor)
		if err != nil {
			return "", fmt.Errorf("kalshi.FindTicker: %w", err)
		}
		for _, ev := range resp.Events {
			for _, m := range ev.Markets {
				if m.Title == title {
					c.titles[title] = m.Ticker
					return m.Ticker, nil
				}
			}
		}
		cursor = resp.Cursor
		if cursor == "" {
			break
		}
	}
	return "", fmt.Errorf("kalshi.FindTicker %q: %w", title, domain.ErrNotFound)
}

func (c *Client) events(ctx context.Context, cursor string) (eventsResponse, error) {
	params := url.Values{}
	params.Set("status", "open")
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("with_nested_markets", "true")
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp eventsResponse
	if err := c.http.Get(ctx, c.baseURL+"/events?"+params.Encode(), &resp); err != nil {
		return eventsResponse{}, checkStatus(err)
	}
	return resp, nil
}

func toRecord(m kalshiMarket, category string, closeAt time.Time) (domain.MarketRecord, error) {
	q := domain.Quote{
		YesBid:    m.YesBid,
		YesAsk:    m.YesAsk,
		NoBid:     m.NoBid,
		NoAsk:     m.NoAsk,
		LastPrice: m.LastPrice,
	}
	rec, err := domain.NewQuotedRecord(domain.SourceKalshi, m.Ticker, m.Title, q)
	if err != nil {
		return domain.MarketRecord{}, err
	}
	return rec.WithVolume(m.Volume).WithCloseTime(closeAt).WithCategory(category), nil
}

func parseClose(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
