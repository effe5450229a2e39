// Package oddsapi es la fuente de cuotas de sportsbooks (the-odds-api.com).
// Las cuotas americanas de todas las casas se promedian por equipo.
package oddsapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

const (
	DefaultBaseURL = "https://api.the-odds-api.com"

	maxSports = 4
)

// ligas que se consultan; se compara contra la key del deporte.
var leagues = []string{"nfl", "nba", "mlb", "nhl"}

type sport struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

type game struct {
	ID         string      `json:"id"`
	HomeTeam   string      `json:"home_team"`
	AwayTeam   string      `json:"away_team"`
	Bookmakers []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key     string       `json:"key"`
	Markets []oddsMarket `json:"markets"`
}

type oddsMarket struct {
	Key      string    `json:"key"`
	Outcomes []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"` // cuota americana
}

// Client consulta the-odds-api. Sin API key la fuente queda vacía.
type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
}

// NewClient crea un Client. Si baseURL está vacío usa producción.
func NewClient(h *httpx.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: h, baseURL: baseURL, apiKey: apiKey}
}

// Name implementa ports.Source.
func (c *Client) Name() string { return string(domain.SourceSportsbooks) }

// running acumula las probabilidades de un equipo entre casas de apuestas.
type running struct {
	title string
	sum   float64
	n     int
}

// Fetch implementa ports.Source.
func (c *Client) Fetch(ctx context.Context) domain.FetchResult {
	if c.apiKey == "" {
		return domain.Degraded(c.Name(), "no API key configured", nil)
	}

	var sports []sport
	if err := c.http.Get(ctx, c.url("/v4/sports/", nil), &sports); err != nil {
		return domain.Degraded(c.Name(), "sports list request failed", err)
	}

	targets := targetSports(sports)
	avg := make(map[string]*running)
	var order []string
	skipped := 0

	for _, s := range targets {
		params := url.Values{}
		params.Set("regions", "us")
		params.Set("markets", "h2h")
		params.Set("oddsFormat", "american")

		var games []game
		if err := c.http.Get(ctx, c.url("/v4/sports/"+url.PathEscape(s)+"/odds/", params), &games); err != nil {
			slog.Warn("odds request failed, skipping sport", "sport", s, "err", err)
			continue
		}

		for _, g := range games {
			for _, bk := range g.Bookmakers {
				if len(bk.Markets) == 0 {
					continue
				}
				for _, out := range bk.Markets[0].Outcomes {
					prob, err := domain.AmericanToProb(out.Price)
					if err != nil {
						skipped++
						continue
					}
					key := domain.Normalize(out.Name + " win " + s)
					r, ok := avg[key]
					if !ok {
						r = &running{title: fmt.Sprintf("%s (%s)", out.Name, s)}
						avg[key] = r
						order = append(order, key)
					}
					r.sum += prob
					r.n++
				}
			}
		}
	}

	records := make([]domain.MarketRecord, 0, len(order))
	for _, key := range order {
		r := avg[key]
		rec, err := domain.NewMarketRecord(domain.SourceSportsbooks, key, r.title, r.sum/float64(r.n))
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	slog.Debug("sportsbooks fetch complete", "sports", len(targets), "lines", len(records))
	return domain.Fetched(c.Name(), records, skipped)
}

func (c *Client) url(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)
	return c.baseURL + path + "?" + params.Encode()
}

// targetSports devuelve hasta maxSports deportes activos de las ligas seguidas.
func targetSports(sports []sport) []string {
	var out []string
	for _, s := range sports {
		if !s.Active {
			continue
		}
		for _, l := range leagues {
			if strings.Contains(s.Key, l) {
				out = append(out, s.Key)
				break
			}
		}
		if len(out) == maxSports {
			break
		}
	}
	return out
}
