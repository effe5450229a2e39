package alpaca

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// BracketStrategy compra acciones enteras con take-profit y stop-loss adjuntos.
type BracketStrategy struct {
	c *Client
}

// Bracket devuelve la estrategia preferida.
func (c *Client) Bracket() *BracketStrategy { return &BracketStrategy{c: c} }

func (s *BracketStrategy) Name() string { return "bracket" }

// Submit devuelve domain.ErrStrategyUnsupported si el importe no llega a una acción entera.
func (s *BracketStrategy) Submit(ctx context.Context, o domain.EquityOrder) (domain.OrderReceipt, error) {
	if !o.RefPrice.IsPositive() {
		return domain.OrderReceipt{}, fmt.Errorf("alpaca.Bracket %s: no reference price: %w", o.Symbol, domain.ErrStrategyUnsupported)
	}
	qty := o.Notional.Div(o.RefPrice).Floor()
	if qty.LessThan(decimal.NewFromInt(1)) {
		return domain.OrderReceipt{}, fmt.Errorf("alpaca.Bracket %s: $%s buys < 1 share at $%s: %w",
			o.Symbol, o.Notional.StringFixed(2), o.RefPrice.StringFixed(2), domain.ErrStrategyUnsupported)
	}

	one := decimal.NewFromInt(1)
	req := orderRequest{
		Symbol:      o.Symbol,
		Qty:         &qty,
		Side:        "buy",
		Type:        "market",
		TimeInForce: "day",
		OrderClass:  "bracket",
		TakeProfit:  &takeProfit{LimitPrice: o.RefPrice.Mul(one.Add(decimal.NewFromFloat(o.TakeProfitPct))).Round(2)},
		StopLoss:    &stopLoss{StopPrice: o.RefPrice.Mul(one.Add(decimal.NewFromFloat(o.StopLossPct))).Round(2)},
	}
	rcpt, err := s.c.submit(ctx, req)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("alpaca.Bracket %s: %w", o.Symbol, err)
	}
	return rcpt, nil
}

// SimpleStrategy compra por importe (acciones fraccionarias) sin salidas adjuntas.
type SimpleStrategy struct {
	c *Client
}

// Simple devuelve la estrategia de fallback.
func (c *Client) Simple() *SimpleStrategy { return &SimpleStrategy{c: c} }

func (s *SimpleStrategy) Name() string { return "notional" }

func (s *SimpleStrategy) Submit(ctx context.Context, o domain.EquityOrder) (domain.OrderReceipt, error) {
	notional := o.Notional.Round(2)
	req := orderRequest{
		Symbol:      o.Symbol,
		Notional:    &notional,
		Side:        "buy",
		Type:        "market",
		TimeInForce: "day",
	}
	rcpt, err := s.c.submit(ctx, req)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("alpaca.Simple %s: %w", o.Symbol, err)
	}
	return rcpt, nil
}
