// Package alpaca es el broker de acciones del trader de momentum.
package alpaca

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

const (
	DefaultBaseURL = "https://api.alpaca.markets"
	DefaultDataURL = "https://data.alpaca.markets"
)

// Client habla con las APIs de trading y de datos de Alpaca.
type Client struct {
	http    *httpx.Client
	baseURL string
	dataURL string
	auth    []httpx.RequestOption
}

// NewClient crea un Client. URLs vacías usan producción.
func NewClient(h *httpx.Client, baseURL, dataURL, keyID, secret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if dataURL == "" {
		dataURL = DefaultDataURL
	}
	return &Client{
		http:    h,
		baseURL: strings.TrimRight(baseURL, "/"),
		dataURL: strings.TrimRight(dataURL, "/"),
		auth: []httpx.RequestOption{
			httpx.WithHeader("APCA-API-KEY-ID", keyID),
			httpx.WithHeader("APCA-API-SECRET-KEY", secret),
		},
	}
}

// Clock implementa ports.EquityBroker.
func (c *Client) Clock(ctx context.Context) (domain.MarketClock, error) {
	var resp clockResponse
	if err := c.http.Get(ctx, c.baseURL+"/v2/clock", &resp, c.auth...); err != nil {
		return domain.MarketClock{}, fmt.Errorf("alpaca.Clock: %w", err)
	}
	return domain.MarketClock{IsOpen: resp.IsOpen, NextOpen: resp.NextOpen, NextClose: resp.NextClose}, nil
}

// Account implementa ports.EquityBroker.
func (c *Client) Account(ctx context.Context) (domain.EquityAccount, error) {
	var resp accountResponse
	if err := c.http.Get(ctx, c.baseURL+"/v2/account", &resp, c.auth...); err != nil {
		return domain.EquityAccount{}, fmt.Errorf("alpaca.Account: %w", err)
	}
	return domain.EquityAccount{Cash: resp.Cash, Equity: resp.Equity, BuyingPower: resp.BuyingPower}, nil
}

// Positions implementa ports.EquityBroker.
func (c *Client) Positions(ctx context.Context) ([]domain.EquityPosition, error) {
	var resp []positionResponse
	if err := c.http.Get(ctx, c.baseURL+"/v2/positions", &resp, c.auth...); err != nil {
		return nil, fmt.Errorf("alpaca.Positions: %w", err)
	}
	out := make([]domain.EquityPosition, 0, len(resp))
	for _, p := range resp {
		out = append(out, domain.EquityPosition{
			Symbol:          p.Symbol,
			Qty:             p.Qty,
			AvgEntryPrice:   p.AvgEntryPrice.InexactFloat64(),
			CurrentPrice:    p.CurrentPrice.InexactFloat64(),
			UnrealizedPLPct: p.UnrealizedPLPC.InexactFloat64(),
		})
	}
	return out, nil
}

// Snapshots implementa ports.EquityBroker. Los símbolos sin datos se omiten;
// el resultado va ordenado por símbolo.
func (c *Client) Snapshots(ctx context.Context, symbols []string) ([]domain.Snapshot, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var resp map[string]*snapshot
	if err := c.http.Get(ctx, c.dataURL+"/v2/stocks/snapshots?"+params.Encode(), &resp, c.auth...); err != nil {
		return nil, fmt.Errorf("alpaca.Snapshots: %w", err)
	}

	out := make([]domain.Snapshot, 0, len(resp))
	for sym, s := range resp {
		if s == nil || s.LatestTrade == nil || s.PrevDailyBar == nil {
			continue
		}
		snap := domain.Snapshot{
			Symbol:     sym,
			Price:      s.LatestTrade.Price,
			PrevClose:  s.PrevDailyBar.Close,
			PrevVolume: s.PrevDailyBar.Volume,
		}
		if s.DailyBar != nil {
			snap.Volume = s.DailyBar.Volume
			snap.VWAP = s.DailyBar.VWAP
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// ClosePosition implementa ports.EquityBroker con una venta a mercado de toda la cantidad.
func (c *Client) ClosePosition(ctx context.Context, pos domain.EquityPosition) (domain.OrderReceipt, error) {
	qty := pos.Qty.Abs()
	req := orderRequest{
		Symbol:      pos.Symbol,
		Qty:         &qty,
		Side:        "sell",
		Type:        "market",
		TimeInForce: "day",
	}
	rcpt, err := c.submit(ctx, req)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("alpaca.ClosePosition %s: %w", pos.Symbol, err)
	}
	return rcpt, nil
}

// submit envía una orden. Un 4xx se devuelve envuelto en domain.ErrOrderRejected.
func (c *Client) submit(ctx context.Context, req orderRequest) (domain.OrderReceipt, error) {
	var resp orderResponse
	if err := c.http.Post(ctx, c.baseURL+"/v2/orders", req, &resp, c.auth...); err != nil {
		if httpx.IsClientError(err) {
			return domain.OrderReceipt{}, fmt.Errorf("%w: %w", domain.ErrOrderRejected, err)
		}
		return domain.OrderReceipt{}, err
	}
	return domain.OrderReceipt{OrderID: resp.ID, Status: resp.Status}, nil
}
