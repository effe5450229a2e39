package domain

import (
	"fmt"
	"time"
)

// ExitKind es el motivo de salida de una posición.
type ExitKind string

const (
	StopLoss     ExitKind = "STOP_LOSS"
	TakeProfit   ExitKind = "TAKE_PROFIT"
	TrailingStop ExitKind = "TRAILING_STOP"
	// External marca una posición que el broker ya no tiene: se cerró fuera del bot.
	External ExitKind = "EXTERNAL"
)

// ExitLimits son los umbrales de P&L relativos a la entrada (−0.15 = −15%).
// TrailingStop en 0 lo desactiva.
type ExitLimits struct {
	StopLoss     float64
	TakeProfit   float64
	TrailingStop float64
}

// DefaultExitLimits: −15% / +20%, sin trailing.
func DefaultExitLimits() ExitLimits {
	return ExitLimits{StopLoss: -0.15, TakeProfit: 0.20}
}

// Holding es la vista de una posición del broker. Count > 0 son contratos YES,
// Count < 0 contratos NO.
type Holding struct {
	Ticker        string
	Count         int64
	ExposureCents int64
}

// Side deduce el lado a partir del signo.
func (h Holding) Side() Side {
	if h.Count < 0 {
		return SideNo
	}
	return SideYes
}

// Entry es lo que el ledger sabe de una posición abierta.
type Entry struct {
	Ticker   string
	Side     Side
	Price    float64 // centavos
	Count    int64
	Peak     float64 // mejor precio visto desde la entrada
	State    PositionState
	OpenedAt time.Time
}

// ExitAction es una salida a ejecutar.
type ExitAction struct {
	Ticker       string
	Kind         ExitKind
	Side         Side
	Count        int64
	EntryPrice   float64
	CurrentPrice float64
	PnLPct       float64 // en %, 1 decimal
	Reason       string
}

// EntryFunc resuelve el precio de entrada de un ticker.
type EntryFunc func(ticker string) (Entry, bool)

// QuoteFunc resuelve la cotización actual de un ticker.
type QuoteFunc func(ticker string) (Quote, bool)

// CurrentPrice devuelve el bid adecuado al lado que se tiene.
// YES: yes_bid o last_price. NO: no_bid, o 100 − yes si hay precio YES.
func CurrentPrice(side Side, q Quote) float64 {
	if side == SideNo {
		return q.NoPrice()
	}
	return q.YesPrice()
}

// CheckExits evalúa stop-loss, take-profit y trailing stop de cada posición.
// Las posiciones sin entrada o sin precio actual se saltan.
func CheckExits(holdings []Holding, entries EntryFunc, quotes QuoteFunc, lim ExitLimits) []ExitAction {
	var exits []ExitAction
	for _, h := range holdings {
		if h.Ticker == "" || h.Count == 0 {
			continue
		}
		entry, ok := entries(h.Ticker)
		if !ok || entry.Price <= 0 {
			continue
		}
		side := entry.Side
		if side == "" {
			side = h.Side()
		}
		q, ok := quotes(h.Ticker)
		if !ok {
			continue
		}
		cur := CurrentPrice(side, q)
		if cur <= 0 {
			continue
		}

		pnl := (cur - entry.Price) / entry.Price
		action := ExitAction{
			Ticker:       h.Ticker,
			Side:         side,
			Count:        abs64(h.Count),
			EntryPrice:   entry.Price,
			CurrentPrice: cur,
			PnLPct:       Round1(pnl * 100),
		}

		switch {
		case pnl <= lim.StopLoss:
			action.Kind = StopLoss
			action.Reason = fmt.Sprintf("Stop-loss triggered: %.1f%% (threshold: %g%%)", pnl*100, lim.StopLoss*100)
		case pnl >= lim.TakeProfit:
			action.Kind = TakeProfit
			action.Reason = fmt.Sprintf("Take-profit triggered: +%.1f%% (threshold: +%g%%)", pnl*100, lim.TakeProfit*100)
		case trailingHit(entry, cur, lim.TrailingStop):
			action.Kind = TrailingStop
			action.Reason = fmt.Sprintf("Trailing stop triggered: %.0f¢ is %.1f%% below peak %.0f¢",
				cur, (entry.Peak-cur)/entry.Peak*100, entry.Peak)
		default:
			continue
		}
		exits = append(exits, action)
	}
	return exits
}

// trailingHit solo aplica cuando el pico superó la entrada.
func trailingHit(e Entry, cur, trail float64) bool {
	if trail <= 0 || e.Peak <= e.Price {
		return false
	}
	return cur <= e.Peak*(1-trail)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
