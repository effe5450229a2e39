package ports

import (
	"context"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Source obtiene mercados de una plataforma. Nunca falla: una fuente caída
// devuelve un FetchResult degradado con el motivo.
type Source interface {
	Name() string
	Fetch(ctx context.Context) domain.FetchResult
}

// SeriesSource obtiene la serie histórica que alimenta el modelo de probabilidad.
type SeriesSource interface {
	Series(ctx context.Context) domain.SeriesResult
}
