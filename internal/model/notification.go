package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderStatusChanged = "order.status_changed"
	EventPayoutCreated      = "payout.created"
)

type OrderStatusChanged struct {
	OrderID   string      `json:"order_id"`
	BuyerID   string      `json:"buyer_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedAt time.Time   `json:"changed_at"`
}

type PayoutCreated struct {
	PayoutID string          `json:"payout_id"`
	SellerID string          `json:"seller_id"`
	OrderID  string          `json:"order_id"`
	Amount   decimal.Decimal `json:"amount"`
	Fee      decimal.Decimal `json:"fee"`
}

// Envelope wraps an outbox payload when it is published.
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}
