package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "PENDING"
	PayoutCompleted PayoutStatus = "COMPLETED"
)

type SellerPlan string

const (
	PlanFree    SellerPlan = "FREE"
	PlanPro     SellerPlan = "PRO"
	PlanPremium SellerPlan = "PREMIUM"
)

type Seller struct {
	ID         string     `gorm:"primaryKey;size:64;not null"`
	Name       string     `gorm:"size:128"`
	Plan       SellerPlan `gorm:"size:32;not null;default:FREE"`
	TotalSales int64      `gorm:"not null;default:0"` // lifetime count of paid orders touched
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Product struct {
	ID        string          `gorm:"primaryKey;size:64;not null"`
	SellerID  string          `gorm:"size:64;index;not null"`
	Seller    Seller          `gorm:"foreignKey:SellerID"`
	Name      string          `gorm:"size:255"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
}

type Order struct {
	ID             string          `gorm:"primaryKey;size:64;not null"` // external_reference at the provider
	BuyerID        string          `gorm:"size:64;index;not null"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PlatformFee    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellerAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         OrderStatus     `gorm:"size:32;index;not null"`
	TrackingNumber string          `gorm:"size:128"`
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	// failed payout sweeps; the sweep skips the order until PayoutRetryAt
	PayoutAttempts int32 `gorm:"not null;default:0"`
	PayoutRetryAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateTotals checks total = subtotal + shipping - discount.
func (o *Order) ValidateTotals() error {
	want := o.Subtotal.Add(o.ShippingCost).Sub(o.Discount)
	if !o.Total.Equal(want) {
		return fmt.Errorf("order %s total %s does not match subtotal+shipping-discount %s",
			o.ID, o.Total.StringFixed(2), want.StringFixed(2))
	}
	return nil
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.id
	OrderID string `gorm:"size:64;index;not null"`
	// FK → products.id
	ProductID string          `gorm:"size:64;index;not null"`
	Product   Product         `gorm:"foreignKey:ProductID"`
	Quantity  int32           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time
}

type Payment struct {
	ID            string          `gorm:"primaryKey;size:64;not null"`
	OrderID       string          `gorm:"size:64;uniqueIndex;not null"`
	TransactionID string          `gorm:"size:64;index"` // provider payment id
	Status        PaymentStatus   `gorm:"size:32;index;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method        string          `gorm:"size:64"`
	Metadata      string          `gorm:"type:text"` // raw provider payload
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Payout struct {
	ID        string          `gorm:"primaryKey;size:64;not null"`
	SellerID  string          `gorm:"size:64;not null;uniqueIndex:idx_payout_order_seller,priority:2;index"`
	OrderID   string          `gorm:"size:64;not null;uniqueIndex:idx_payout_order_seller,priority:1"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"` // seller net
	Fee       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status    PayoutStatus    `gorm:"size:32;index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WebhookEvent struct {
	EventID        string `gorm:"primaryKey;size:128;not null"` // payment:<provider id>:<provider status>
	EventType      string `gorm:"size:64;index"`
	PaymentID      string `gorm:"size:64;index"`
	OrderID        string `gorm:"size:64;index"`
	ProviderStatus string `gorm:"size:32"`
	Deliveries     int32  `gorm:"not null;default:1"`
	ProcessedAt    time.Time
	CreatedAt      time.Time
}

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxSent       OutboxStatus = "sent"
)

type OutboxEvent struct {
	ID        string       `gorm:"primaryKey;size:64;not null"`
	EventType string       `gorm:"size:64;index;not null"`
	Payload   string       `gorm:"type:text;not null"`
	Status    OutboxStatus `gorm:"size:16;index;not null"`
	Attempts  int32        `gorm:"not null;default:0"`
	NextRetry time.Time    `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// All lists every persisted model for AutoMigrate.
func All() []any {
	return []any{
		&Seller{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Payout{},
		&WebhookEvent{},
		&OutboxEvent{},
	}
}
