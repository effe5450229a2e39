package ports

import (
	"context"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Broker ejecuta órdenes sobre contratos binarios (Kalshi).
type Broker interface {
	Account(ctx context.Context) (domain.Account, error)
	Positions(ctx context.Context) ([]domain.Holding, error)

	// Market devuelve la cotización actual de un ticker.
	Market(ctx context.Context, ticker string) (domain.MarketRecord, error)

	// FindTicker resuelve el ticker de un mercado por su título exacto.
	// Devuelve domain.ErrNotFound si no existe.
	FindTicker(ctx context.Context, title string) (string, error)

	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReceipt, error)

	// ClosePosition vende la posición completa al precio actual.
	ClosePosition(ctx context.Context, exit domain.ExitAction) (domain.OrderReceipt, error)
}

// EquityBroker es la cuenta de acciones (Alpaca).
type EquityBroker interface {
	Clock(ctx context.Context) (domain.MarketClock, error)
	Account(ctx context.Context) (domain.EquityAccount, error)
	Positions(ctx context.Context) ([]domain.EquityPosition, error)
	Snapshots(ctx context.Context, symbols []string) ([]domain.Snapshot, error)

	// ClosePosition vende la posición completa con una orden a mercado.
	ClosePosition(ctx context.Context, pos domain.EquityPosition) (domain.OrderReceipt, error)
}

// OrderStrategy envía una compra de acciones de una forma concreta
// (bracket, market simple...). Devuelve domain.ErrStrategyUnsupported o
// domain.ErrOrderRejected cuando la siguiente estrategia de la cadena debe intentarlo.
type OrderStrategy interface {
	Name() string
	Submit(ctx context.Context, order domain.EquityOrder) (domain.OrderReceipt, error)
}
