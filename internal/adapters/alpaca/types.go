package alpaca

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alpaca serializa los importes como strings; decimal.Decimal los acepta tal cual.

type clockResponse struct {
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

type accountResponse struct {
	Cash        decimal.Decimal `json:"cash"`
	Equity      decimal.Decimal `json:"equity"`
	BuyingPower decimal.Decimal `json:"buying_power"`
}

type positionResponse struct {
	Symbol         string          `json:"symbol"`
	Qty            decimal.Decimal `json:"qty"`
	AvgEntryPrice  decimal.Decimal `json:"avg_entry_price"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	UnrealizedPLPC decimal.Decimal `json:"unrealized_plpc"`
}

type snapshot struct {
	LatestTrade  *trade `json:"latestTrade"`
	DailyBar     *bar   `json:"dailyBar"`
	PrevDailyBar *bar   `json:"prevDailyBar"`
}

type trade struct {
	Price float64 `json:"p"`
}

type bar struct {
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	VWAP   float64 `json:"vw"`
}

type orderRequest struct {
	Symbol      string           `json:"symbol"`
	Qty         *decimal.Decimal `json:"qty,omitempty"`
	Notional    *decimal.Decimal `json:"notional,omitempty"`
	Side        string           `json:"side"`
	Type        string           `json:"type"`
	TimeInForce string           `json:"time_in_force"`
	OrderClass  string           `json:"order_class,omitempty"`
	TakeProfit  *takeProfit      `json:"take_profit,omitempty"`
	StopLoss    *stopLoss        `json:"stop_loss,omitempty"`
}

type takeProfit struct {
	LimitPrice decimal.Decimal `json:"limit_price"`
}

type stopLoss struct {
	StopPrice decimal.Decimal `json:"stop_price"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
