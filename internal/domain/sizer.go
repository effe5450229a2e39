package domain

import "math"

// SizingLimits acota el tamaño de una orden. Dinero en centavos.
type SizingLimits struct {
	MaxTradeCents   int64
	CashBufferCents int64
	MaxContracts    int64
	MinPrice        int64 // inclusive
	MaxPrice        int64 // exclusive
}

// DefaultSizingLimits: $10 por trade (10% de $100), $5 de colchón, 50 contratos.
func DefaultSizingLimits() SizingLimits {
	return SizingLimits{
		MaxTradeCents:   1000,
		CashBufferCents: 500,
		MaxContracts:    50,
		MinPrice:        1,
		MaxPrice:        99,
	}
}

// Order es una orden de compra acotada, lista para enviar.
type Order struct {
	Side            Side
	Price           int64 // centavos por contrato
	Count           int64
	TotalCost       int64
	PotentialProfit int64
	ROI             float64
}

// SizeOrder convierte una oportunidad aprobada en una orden. Devuelve false si
// el precio está fuera de banda o no alcanza para un contrato.
func SizeOrder(opp Opportunity, cashCents int64, lim SizingLimits) (Order, bool) {
	price := int64(math.Round(opp.EntryCost))
	if price < lim.MinPrice || price >= lim.MaxPrice || price <= 0 {
		return Order{}, false
	}

	spend := min(lim.MaxTradeCents, cashCents-lim.CashBufferCents)
	if spend <= 0 {
		return Order{}, false
	}

	count := spend / price
	if count <= 0 {
		return Order{}, false
	}
	if lim.MaxContracts > 0 {
		count = min(count, lim.MaxContracts)
	}

	total := count * price
	profit := count*100 - total
	return Order{
		Side:            opp.Direction.Side(),
		Price:           price,
		Count:           count,
		TotalCost:       total,
		PotentialProfit: profit,
		ROI:             Round1(float64(profit) / float64(total) * 100),
	}, true
}
