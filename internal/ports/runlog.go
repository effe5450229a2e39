package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// RunLog es el registro append-only de auditoría. No se lee para decidir nada.
type RunLog interface {
	Append(ctx context.Context, ev domain.LogEvent) error
}

// StateStore persiste el DailyState entre runs.
type StateStore interface {
	// Load nunca falla por un archivo ausente o corrupto: devuelve el estado vacío de hoy.
	Load(ctx context.Context, now time.Time) (domain.DailyState, error)
	Save(ctx context.Context, s domain.DailyState) error
}
