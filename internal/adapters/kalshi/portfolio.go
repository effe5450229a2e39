package kalshi

import (
	"context"
	"fmt"
	"math"
	"net/url"

	"github.com/google/uuid"

	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Account implementa ports.Broker.
func (c *Client) Account(ctx context.Context) (domain.Account, error) {
	var resp balanceResponse
	if err := c.http.Get(ctx, c.baseURL+"/portfolio/balance", &resp, c.sign); err != nil {
		return domain.Account{}, fmt.Errorf("kalshi.Account: %w", checkStatus(err))
	}
	return domain.Account{CashCents: resp.Balance, PortfolioValueCents: resp.PortfolioValue}, nil
}

// Positions implementa ports.Broker. Solo devuelve posiciones con contratos.
func (c *Client) Positions(ctx context.Context) ([]domain.Holding, error) {
	var out []domain.Holding
	var cursor string
	for page := 0; page < maxScanPages; page++ {
		params := url.Values{}
		params.Set("limit", "100")
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		var resp positionsResponse
		if err := c.http.Get(ctx, c.baseURL+"/portfolio/positions?"+params.Encode(), &resp, c.sign); err != nil {
			return nil, fmt.Errorf("kalshi.Positions: %w", checkStatus(err))
		}
		for _, p := range resp.MarketPositions {
			if p.Ticker == "" || p.Position == 0 {
				continue
			}
			out = append(out, domain.Holding{
				Ticker:        p.Ticker,
				Count:         p.Position,
				ExposureCents: p.MarketExposure,
			})
		}
		cursor = resp.Cursor
		if cursor == "" {
			break
		}
	}
	return out, nil
}

// PlaceOrder envía una orden límite. Un 4xx se devuelve como domain.ErrOrderRejected.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReceipt, error) {
	if req.Count <= 0 {
		return domain.OrderReceipt{}, fmt.Errorf("kalshi.PlaceOrder %s: count %d: %w", req.Ticker, req.Count, domain.ErrOrderRejected)
	}
	body := orderRequest{
		Ticker:        req.Ticker,
		ClientOrderID: uuid.NewString(),
		Action:        string(req.Action),
		Side:          string(req.Side),
		Type:          "limit",
		Count:         req.Count,
	}
	price := req.Price
	if req.Side == domain.SideNo {
		body.NoPrice = &price
	} else {
		body.YesPrice = &price
	}

	var resp orderResponse
	if err := c.http.Post(ctx, c.baseURL+"/portfolio/orders", body, &resp, c.sign); err != nil {
		if httpx.IsClientError(err) {
			return domain.OrderReceipt{}, fmt.Errorf("kalshi.PlaceOrder %s: %w: %w", req.Ticker, checkStatus(err), domain.ErrOrderRejected)
		}
		return domain.OrderReceipt{}, fmt.Errorf("kalshi.PlaceOrder %s: %w", req.Ticker, checkStatus(err))
	}
	if resp.Order.Status == "canceled" {
		return domain.OrderReceipt{}, fmt.Errorf("kalshi.PlaceOrder %s: order immediately canceled: %w", req.Ticker, domain.ErrOrderRejected)
	}
	return domain.OrderReceipt{OrderID: resp.Order.OrderID, Status: resp.Order.Status}, nil
}

// ClosePosition vende todos los contratos del lado que se tiene al bid actual.
func (c *Client) ClosePosition(ctx context.Context, exit domain.ExitAction) (domain.OrderReceipt, error) {
	return c.PlaceOrder(ctx, domain.OrderRequest{
		Ticker: exit.Ticker,
		Side:   exit.Side,
		Action: domain.ActionSell,
		Count:  exit.Count,
		Price:  int64(math.Round(exit.CurrentPrice)),
	})
}
