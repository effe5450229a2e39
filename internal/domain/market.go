package domain

import (
	"fmt"
	"time"
)

// SourceID identifica el feed del que proviene un MarketRecord.
type SourceID string

const (
	SourceKalshi      SourceID = "kalshi"
	SourcePolymarket  SourceID = "polymarket"
	SourcePredictIt   SourceID = "predictit"
	SourceSportsbooks SourceID = "sportsbooks"
	SourceModel       SourceID = "model"
)

// Quote son los precios cotizados (en centavos) de un mercado con libro, como Kalshi.
// Un campo a 0 significa "sin cotización".
type Quote struct {
	YesBid    float64
	YesAsk    float64
	NoBid     float64
	NoAsk     float64
	LastPrice float64
}

// YesPrice devuelve el precio YES efectivo: yes_bid, o last_price si no hay bid.
func (q Quote) YesPrice() float64 {
	if q.YesBid > 0 {
		return q.YesBid
	}
	return q.LastPrice
}

// NoPrice devuelve el precio NO efectivo: no_bid, o 100 − YesPrice si hay precio YES.
func (q Quote) NoPrice() float64 {
	if q.NoBid > 0 {
		return q.NoBid
	}
	if yes := q.YesPrice(); yes > 0 {
		return 100 - yes
	}
	return 0
}

// MarketRecord es un mercado normalizado de cualquier fuente.
// Yes y No están en puntos porcentuales (0–100). No = 100 − Yes salvo que la fuente
// lo cotice directamente.
type MarketRecord struct {
	SourceID        SourceID
	Key             string // ticker o clave normalizada de la fuente
	RawTitle        string
	NormalizedTitle string
	Category        string
	Yes             float64
	No              float64
	Volume          int64
	CloseTime       *time.Time
	Quote           Quote
}

// NewMarketRecord valida el precio YES y deriva No y NormalizedTitle.
func NewMarketRecord(source SourceID, key, title string, yes float64) (MarketRecord, error) {
	if yes < 0 || yes > 100 {
		return MarketRecord{}, fmt.Errorf("domain.NewMarketRecord: %s %q: yes price %.2f out of [0,100]", source, key, yes)
	}
	return MarketRecord{
		SourceID:        source,
		Key:             key,
		RawTitle:        title,
		NormalizedTitle: Normalize(title),
		Yes:             Round1(yes),
		No:              Round1(100 - yes),
	}, nil
}

// NewQuotedRecord crea un MarketRecord a partir de un libro cotizado en centavos.
// Yes = yes_bid o last_price; No = no_bid o 100 − Yes.
func NewQuotedRecord(source SourceID, key, title string, q Quote) (MarketRecord, error) {
	r, err := NewMarketRecord(source, key, title, q.YesPrice())
	if err != nil {
		return MarketRecord{}, err
	}
	if q.NoBid > 0 {
		r.No = q.NoBid
	}
	r.Quote = q
	return r, nil
}

// WithVolume devuelve una copia con el volumen dado (negativos se tratan como 0).
func (r MarketRecord) WithVolume(v int64) MarketRecord {
	if v < 0 {
		v = 0
	}
	r.Volume = v
	return r
}

// WithCloseTime devuelve una copia con la fecha de cierre dada.
func (r MarketRecord) WithCloseTime(t time.Time) MarketRecord {
	if t.IsZero() {
		r.CloseTime = nil
		return r
	}
	utc := t.UTC()
	r.CloseTime = &utc
	return r
}

// WithCategory devuelve una copia con la categoría dada.
func (r MarketRecord) WithCategory(c string) MarketRecord {
	r.Category = c
	return r
}
