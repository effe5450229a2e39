package domain

import "time"

const dayLayout = "2006-01-02"

// DailyState es el único estado durable entre runs. Se reinicia al cambiar el día.
type DailyState struct {
	Date       string   `json:"date"`
	TradeCount int      `json:"trade_count"`
	LossCount  int      `json:"loss_count"`
	Buys       []string `json:"buys"`
	Sells      []string `json:"sells"`
}

// NewDailyState crea el estado vacío del día de now.
func NewDailyState(now time.Time) DailyState {
	return DailyState{
		Date:  now.Format(dayLayout),
		Buys:  []string{},
		Sells: []string{},
	}
}

// ForDay devuelve el mismo estado si es de hoy, o uno nuevo si la fecha guardada difiere.
func (d DailyState) ForDay(now time.Time) DailyState {
	if d.Date != now.Format(dayLayout) {
		return NewDailyState(now)
	}
	if d.Buys == nil {
		d.Buys = []string{}
	}
	if d.Sells == nil {
		d.Sells = []string{}
	}
	return d
}

// BuysBlocked indica si se alcanzó el límite de pérdidas diarias.
func (d DailyState) BuysBlocked(maxDailyLosses int) bool {
	return maxDailyLosses > 0 && d.LossCount >= maxDailyLosses
}

// RecordBuy registra una compra ejecutada.
func (d *DailyState) RecordBuy(symbol string) {
	d.TradeCount++
	d.Buys = append(d.Buys, symbol)
}

// RecordExit registra una salida; los stop-loss cuentan como pérdida.
func (d *DailyState) RecordExit(symbol string, kind ExitKind) {
	d.Sells = append(d.Sells, symbol)
	if kind == StopLoss {
		d.LossCount++
	}
}
