package dto

import (
	"beautypro-payments/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

// WebhookResult describes what a webhook delivery did locally.
type WebhookResult struct {
	Ignored        bool
	PaymentID      string
	OrderID        string
	ProviderStatus string
	OrderStatus    model.OrderStatus
	PaymentStatus  model.PaymentStatus
	StatusChanged  bool
	PayoutsCreated int
}

type WebhookAck struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type UpdateOrderStatusRequest struct {
	Status         model.OrderStatus `json:"status"`
	TrackingNumber string            `json:"tracking_number"`
}

type OrderResponse struct {
	ID             string            `json:"id"`
	Status         model.OrderStatus `json:"status"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
	ShippedAt      *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time        `json:"delivered_at,omitempty"`
}

type PayoutResponse struct {
	ID        string             `json:"id"`
	OrderID   string             `json:"order_id"`
	Amount    decimal.Decimal    `json:"amount"`
	Fee       decimal.Decimal    `json:"fee"`
	Status    model.PayoutStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

type ReconcileResponse struct {
	OrdersSettled int `json:"orders_settled"`
}
