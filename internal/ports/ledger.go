package ports

import (
	"context"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// PositionLedger es la fuente canónica de precios de entrada.
type PositionLedger interface {
	RecordFill(ctx context.Context, fill domain.Fill) error

	// Entry devuelve la entrada abierta del ticker; ok=false si no hay ninguna.
	Entry(ctx context.Context, ticker string) (domain.Entry, bool, error)

	OpenEntries(ctx context.Context) ([]domain.Entry, error)

	// UpdatePeak guarda el mejor precio visto si supera el actual.
	UpdatePeak(ctx context.Context, ticker string, price float64) error

	SetState(ctx context.Context, ticker string, state domain.PositionState) error

	// RecordExit cierra la entrada y guarda la salida.
	RecordExit(ctx context.Context, exit domain.ExitAction) error
}

// OpportunityStore guarda el historial de oportunidades detectadas.
type OpportunityStore interface {
	SaveOpportunities(ctx context.Context, opps []domain.Opportunity) error
}
