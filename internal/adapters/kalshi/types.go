package kalshi

// eventsResponse es la respuesta de GET /events?with_nested_markets=true.
type eventsResponse struct {
	Events []kalshiEvent `json:"events"`
	Cursor string        `json:"cursor"`
}

type kalshiEvent struct {
	EventTicker string         `json:"event_ticker"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Markets     []kalshiMarket `json:"markets"`
}

// kalshiMarket: precios en centavos enteros (1–99).
type kalshiMarket struct {
	Ticker    string  `json:"ticker"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	YesBid    float64 `json:"yes_bid"`
	YesAsk    float64 `json:"yes_ask"`
	NoBid     float64 `json:"no_bid"`
	NoAsk     float64 `json:"no_ask"`
	LastPrice float64 `json:"last_price"`
	Volume    int64   `json:"volume"`
	CloseTime string  `json:"close_time"`
}

type marketResponse struct {
	Market kalshiMarket `json:"market"`
}

type balanceResponse struct {
	Balance        int64 `json:"balance"`
	PortfolioValue int64 `json:"portfolio_value"`
}

type positionsResponse struct {
	MarketPositions []marketPosition `json:"market_positions"`
	Cursor          string           `json:"cursor"`
}

// marketPosition: Position > 0 YES, < 0 NO.
type marketPosition struct {
	Ticker         string `json:"ticker"`
	Position       int64  `json:"position"`
	MarketExposure int64  `json:"market_exposure"`
}

type orderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id"`
	Action        string `json:"action"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Count         int64  `json:"count"`
	YesPrice      *int64 `json:"yes_price,omitempty"`
	NoPrice       *int64 `json:"no_price,omitempty"`
}

type orderResponse struct {
	Order struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"order"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
