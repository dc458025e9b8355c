package upstox

import "tradegate/internal/domain"

// ltpResponse is the upstream /market-quote/ltp envelope. Data is keyed by
// instrument key.
type ltpResponse struct {
	Status string                    `json:"status"`
	Data   map[string]instrumentData `json:"data"`
}

type instrumentData struct {
	LastPrice       float64 `json:"last_price"`
	InstrumentToken string  `json:"instrument_token"`
}

// fundsResponse is the upstream /user/get-funds-and-margin envelope.
type fundsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Equity struct {
			AvailableMargin float64 `json:"available_margin"`
			UsedMargin      float64 `json:"used_margin"`
		} `json:"equity"`
	} `json:"data"`
}

// OrderDetails is the subset of an upstream order record the modify flow
// needs to re-run the funds guard.
type OrderDetails struct {
	OrderID         string                 `json:"order_id"`
	InstrumentToken string                 `json:"instrument_token"`
	TransactionType domain.TransactionType `json:"transaction_type"`
	Quantity        int                    `json:"quantity"`
	Price           float64                `json:"price"`
	Status          string                 `json:"status"`
}

type orderDetailResponse struct {
	Status string       `json:"status"`
	Data   OrderDetails `json:"data"`
}
