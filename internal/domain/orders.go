package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderRejected: el broker rechazó la orden (4xx). Dispara la estrategia de fallback.
	ErrOrderRejected = errors.New("order rejected")
	// ErrStrategyUnsupported: la estrategia no puede expresar la orden (p.ej. < 1 acción entera).
	ErrStrategyUnsupported = errors.New("order strategy unsupported for this order")
	// ErrNotFound: ticker o mercado inexistente.
	ErrNotFound = errors.New("not found")
)

// OrderAction es compra o venta.
type OrderAction string

const (
	ActionBuy  OrderAction = "buy"
	ActionSell OrderAction = "sell"
)

// OrderRequest es una orden límite sobre un contrato binario. Precio en centavos.
type OrderRequest struct {
	Ticker string
	Side   Side
	Action OrderAction
	Count  int64
	Price  int64
}

// OrderReceipt es la confirmación del broker.
type OrderReceipt struct {
	OrderID string
	Status  string
}

// Fill es una compra ejecutada que registra el ledger.
type Fill struct {
	ID       string
	Ticker   string
	Side     Side
	Count    int64
	Price    int64
	RuleName string
	FilledAt time.Time
}

// Account es el estado de una cuenta de predicción (centavos).
type Account struct {
	CashCents           int64
	PortfolioValueCents int64
}

// EquityAccount es el estado de una cuenta de acciones.
type EquityAccount struct {
	Cash        decimal.Decimal
	Equity      decimal.Decimal
	BuyingPower decimal.Decimal
}

// EquityOrder es una compra a mercado por importe con salidas adjuntas opcionales.
type EquityOrder struct {
	Symbol        string
	Notional      decimal.Decimal
	RefPrice      decimal.Decimal // último precio, para calcular acciones enteras y niveles
	StopLossPct   float64         // −0.03
	TakeProfitPct float64         // 0.06
}
