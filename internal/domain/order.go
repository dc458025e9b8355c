// Package domain defines the request and error types shared by the gateway,
// the upstream client, and the funds guard.
package domain

import (
	"fmt"
	"time"
)

// TransactionType is the order direction.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// OrderType is the brokerage execution type.
type OrderType string

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStopLoss  OrderType = "SL"
	OrderTypeStopLossM OrderType = "SL-M"
)

// Product is the brokerage classification of holding intent.
type Product string

const (
	ProductCNC      Product = "CNC"
	ProductIntraday Product = "INTRADAY"
	ProductMIS      Product = "MIS"
	ProductCO       Product = "CO"
	ProductBO       Product = "BO"
)

// Validity controls how long an order stays live.
type Validity string

const (
	ValidityDay Validity = "DAY"
	ValidityIOC Validity = "IOC"
)

// OrderRequest is the payload accepted by the order placement endpoint and
// forwarded to the upstream /order/place call.
type OrderRequest struct {
	InstrumentToken   string          `json:"instrument_token"`
	Quantity          int             `json:"quantity"`
	OrderType         OrderType       `json:"order_type"`
	Product           Product         `json:"product"`
	TransactionType   TransactionType `json:"transaction_type"`
	Price             float64         `json:"price"`
	Validity          Validity        `json:"validity"`
	DisclosedQuantity int             `json:"disclosed_quantity"`
	TriggerPrice      float64         `json:"trigger_price"`
	IsAmo             bool            `json:"is_amo"`
	Tag               string          `json:"tag,omitempty"`
}

// ApplyDefaults fills the optional fields the upstream API expects to be
// present: DAY validity and a timestamped tag.
func (o *OrderRequest) ApplyDefaults() {
	if o.Validity == "" {
		o.Validity = ValidityDay
	}
	if o.Tag == "" {
		o.Tag = "order_" + time.Now().Format("20060102150405")
	}
}

// Validate checks that all required fields are present and every enum field
// carries a known value before the order is forwarded upstream.
func (o *OrderRequest) Validate() error {
	if o.InstrumentToken == "" {
		return ClientInputf("Missing required field: instrument_token")
	}
	if o.Quantity <= 0 {
		return ClientInputf("quantity must be a positive integer")
	}
	switch o.TransactionType {
	case TransactionBuy, TransactionSell:
	default:
		return ClientInputf("transaction_type must be BUY or SELL, got %q", o.TransactionType)
	}
	switch o.OrderType {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStopLoss, OrderTypeStopLossM:
	default:
		return ClientInputf("unknown order_type %q", o.OrderType)
	}
	switch o.Product {
	case ProductCNC, ProductIntraday, ProductMIS, ProductCO, ProductBO:
	default:
		return ClientInputf("unknown product %q", o.Product)
	}
	switch o.Validity {
	case ValidityDay, ValidityIOC:
	default:
		return ClientInputf("validity must be DAY or IOC, got %q", o.Validity)
	}
	if o.Price < 0 {
		return ClientInputf("price must be >= 0")
	}
	if o.DisclosedQuantity < 0 {
		return ClientInputf("disclosed_quantity must be >= 0")
	}
	if o.TriggerPrice < 0 {
		return ClientInputf("trigger_price must be >= 0")
	}
	return nil
}

// ModifyRequest carries the fields an existing order may be changed with.
// Pointers distinguish "absent" from a zero value; only the non-nil fields
// are forwarded upstream.
type ModifyRequest struct {
	Quantity          *int       `json:"quantity,omitempty"`
	Price             *float64   `json:"price,omitempty"`
	OrderType         *OrderType `json:"order_type,omitempty"`
	Validity          *Validity  `json:"validity,omitempty"`
	DisclosedQuantity *int       `json:"disclosed_quantity,omitempty"`
	TriggerPrice      *float64   `json:"trigger_price,omitempty"`
}

// Empty reports whether the modification carries no valid fields at all.
func (m *ModifyRequest) Empty() bool {
	return m.Quantity == nil && m.Price == nil && m.OrderType == nil &&
		m.Validity == nil && m.DisclosedQuantity == nil && m.TriggerPrice == nil
}

// TouchesFunds reports whether the modification changes quantity or price,
// the only fields that can alter the order's estimated cost.
func (m *ModifyRequest) TouchesFunds() bool {
	return m.Quantity != nil || m.Price != nil
}

// Validate rejects modifications with out-of-range values.
func (m *ModifyRequest) Validate() error {
	if m.Empty() {
		return ClientInputf("No valid fields to modify")
	}
	if m.Quantity != nil && *m.Quantity <= 0 {
		return ClientInputf("quantity must be a positive integer")
	}
	if m.Price != nil && *m.Price < 0 {
		return ClientInputf("price must be >= 0")
	}
	if m.OrderType != nil {
		switch *m.OrderType {
		case OrderTypeMarket, OrderTypeLimit, OrderTypeStopLoss, OrderTypeStopLossM:
		default:
			return ClientInputf("unknown order_type %q", *m.OrderType)
		}
	}
	if m.Validity != nil && *m.Validity != ValidityDay && *m.Validity != ValidityIOC {
		return ClientInputf("validity must be DAY or IOC, got %q", *m.Validity)
	}
	if m.DisclosedQuantity != nil && *m.DisclosedQuantity < 0 {
		return ClientInputf("disclosed_quantity must be >= 0")
	}
	if m.TriggerPrice != nil && *m.TriggerPrice < 0 {
		return ClientInputf("trigger_price must be >= 0")
	}
	return nil
}

// ClientInputf builds a ClientInput error with a formatted message.
func ClientInputf(format string, args ...any) *Error {
	return &Error{Kind: KindClientInput, Message: fmt.Sprintf(format, args...)}
}
