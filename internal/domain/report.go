package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketClock es el estado de la sesión bursátil.
type MarketClock struct {
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// Run modes.
const (
	ModeTrade    = "trade"
	ModeEquities = "equities"
)

// Trade es una compra ejecutada en un run.
type Trade struct {
	RuleName string
	Ticker   string
	Side     Side
	Count    int64
	Price    int64 // centavos; 0 en compras por importe
	Cost     decimal.Decimal
	ROI      float64
	Spread   float64
	Strategy string
	OrderID  string
}

// Rejection es una oportunidad que no llegó a orden.
type Rejection struct {
	RuleName string
	Reason   string
}

// ExitFailure es una salida que no se pudo enviar.
type ExitFailure struct {
	Ticker string
	Kind   ExitKind
	Err    string
}

// RunReport resume un run del trader o del trader de acciones.
type RunReport struct {
	Mode         string
	At           time.Time
	Cash         decimal.Decimal // dólares
	Halted       string          // motivo si no se compró nada por un límite global
	Exits        []ExitAction
	ExitFailures []ExitFailure
	Trades       []Trade
	Rejections   []Rejection
	Signals      []MomentumSignal
}

// Actionable indica si el run ejecutó algo que merezca una alerta.
func (r RunReport) Actionable() bool {
	return len(r.Exits) > 0 || len(r.Trades) > 0
}

// CentsToDollars convierte centavos a dólares sin pérdida.
func CentsToDollars(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
