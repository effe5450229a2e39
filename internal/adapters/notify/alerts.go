package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alejandrodnm/arbgate/internal/domain"
	"github.com/alejandrodnm/arbgate/internal/ports"
)

// FormatAlert devuelve el mensaje corto de un run, o false si no hubo nada que contar.
func FormatAlert(r domain.RunReport) (string, bool) {
	if !r.Actionable() {
		return "", false
	}
	if r.Mode == domain.ModeEquities {
		return FormatEquitiesAlert(r), true
	}
	return FormatTraderAlert(r), true
}

// FormatTraderAlert: primero las salidas, después las compras.
func FormatTraderAlert(r domain.RunReport) string {
	var lines []string
	if len(r.Exits) > 0 {
		lines = append(lines, fmt.Sprintf("🛡️ Kalshi trader: %d position(s) exited:", len(r.Exits)))
		for _, x := range r.Exits {
			lines = append(lines, fmt.Sprintf("• %s: %s (%+.1f%%)", exitIcon(x.Kind), x.Ticker, x.PnLPct))
		}
	}
	if len(r.Trades) > 0 {
		lines = append(lines, fmt.Sprintf("🤖 Kalshi trader: %d trade(s) executed:", len(r.Trades)))
		for _, t := range r.Trades {
			lines = append(lines, fmt.Sprintf("• %s: %d %s @ %d¢ (ROI: %g%%)",
				t.RuleName, t.Count, strings.ToUpper(string(t.Side)), t.Price, t.ROI))
		}
	}
	return strings.Join(lines, "\n")
}

// FormatEquitiesAlert lista ventas y compras en una sola sección.
func FormatEquitiesAlert(r domain.RunReport) string {
	lines := []string{fmt.Sprintf("📈 Equities trader: %d action(s):", len(r.Exits)+len(r.Trades))}
	for _, x := range r.Exits {
		lines = append(lines, fmt.Sprintf("• SELL (%s): %s (%+.1f%%)", x.Kind, x.Ticker, x.PnLPct))
	}
	for _, t := range r.Trades {
		line := fmt.Sprintf("• BUY: %s $%s", t.Ticker, t.Cost.StringFixed(2))
		if t.Strategy != "" {
			line += " (" + t.Strategy + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func exitIcon(k domain.ExitKind) string {
	switch k {
	case domain.StopLoss:
		return "🔴 STOP-LOSS"
	case domain.TrailingStop:
		return "🟠 TRAILING-STOP"
	default:
		return "🟢 TAKE-PROFIT"
	}
}

// Alerting decora un Notifier: después de NotifyRun envía la alerta corta
// si el run ejecutó trades o salidas.
type Alerting struct {
	ports.Notifier
	alerter ports.Alerter
}

// NewAlerting combina la salida por consola con un canal de alertas.
func NewAlerting(n ports.Notifier, a ports.Alerter) *Alerting {
	return &Alerting{Notifier: n, alerter: a}
}

// NotifyRun implementa ports.Notifier.
func (a *Alerting) NotifyRun(ctx context.Context, r domain.RunReport) error {
	err := a.Notifier.NotifyRun(ctx, r)
	text, ok := FormatAlert(r)
	if !ok {
		return err
	}
	if aerr := a.alerter.Alert(ctx, text); aerr != nil {
		return errors.Join(err, fmt.Errorf("notify.Alerting: %w", aerr))
	}
	return err
}
