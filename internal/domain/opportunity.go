package domain

import (
	"fmt"
	"time"
)

// Direction es la operación recomendada sobre el mercado primario.
type Direction string

const (
	BuyYes Direction = "BUY_YES"
	BuyNo  Direction = "BUY_NO"
)

// Side es el lado de un contrato binario.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Side devuelve el lado del contrato que se compra.
func (d Direction) Side() Side {
	if d == BuyNo {
		return SideNo
	}
	return SideYes
}

// DaysUnknown es el centinela de días a resolución cuando no hay fecha de cierre.
// El risk gate lo rechaza como demasiado largo; los scans solo lo muestran.
const DaysUnknown = 9999

// Opportunity es una discrepancia evaluada entre un mercado primario y uno externo.
// Se crea por ciclo y no se modifica.
type Opportunity struct {
	RuleName         string
	Primary          MarketRecord
	External         MarketRecord
	Spread           float64
	Direction        Direction
	Edge             float64
	EntryCost        float64 // centavos por contrato
	ROI              float64
	DaysToResolution int
	Volume           int64
}

// DaysKnown indica si la fecha de cierre era conocida.
func (o Opportunity) DaysKnown() bool {
	return o.DaysToResolution != DaysUnknown
}

// TradeLabel devuelve la operación en formato legible, p.ej. "BUY NO @ 20¢".
func (o Opportunity) TradeLabel() string {
	side := "YES"
	if o.Direction == BuyNo {
		side = "NO"
	}
	return fmt.Sprintf("BUY %s @ %g¢", side, o.EntryCost)
}

// DaysLabel devuelve los días a resolución o "?" si son desconocidos.
func (o Opportunity) DaysLabel() string {
	if !o.DaysKnown() {
		return "?"
	}
	return fmt.Sprintf("%d", o.DaysToResolution)
}

// SeenOpportunity es una regla del historial persistido: su último spread, el
// máximo observado y la ventana en que estuvo activa.
type SeenOpportunity struct {
	RuleName       string
	ExternalSource string
	Spread         float64
	PeakSpread     float64
	Direction      Direction
	ROI            float64
	FirstSeen      time.Time
	LastSeen       time.Time
}
