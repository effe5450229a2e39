package ports

import (
	"context"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Notifier presenta los resultados de cada run al usuario.
type Notifier interface {
	NotifyScan(ctx context.Context, opps []domain.Opportunity) error
	NotifyTiers(ctx context.Context, signals []domain.TierSignal) error
	NotifyRun(ctx context.Context, report domain.RunReport) error
}

// Alerter entrega un mensaje corto fuera de la consola (Telegram).
type Alerter interface {
	Alert(ctx context.Context, text string) error
}
