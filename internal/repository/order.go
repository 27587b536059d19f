package repository

import (
	"beautypro-payments/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindWithItems(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	// TransitionStatus sets the status only when the current one is in from.
	TransitionStatus(ctx context.Context, tx *gorm.DB, orderID string, to model.OrderStatus, from []model.OrderStatus, updates map[string]interface{}) (bool, error)
	SetSettlement(ctx context.Context, tx *gorm.DB, orderID string, platformFee, sellerAmount decimal.Decimal) error
	HasSellerItems(ctx context.Context, tx *gorm.DB, orderID, sellerID string) (bool, error)
	// FindPaidWithoutPayouts lists paid orders with items but no payouts that are due for a sweep,
	// orders with fewer failed sweeps first.
	FindPaidWithoutPayouts(ctx context.Context, limit int) ([]string, error)
	// DeferPayoutSweep records a failed sweep and returns the attempt count.
	DeferPayoutSweep(ctx context.Context, orderID string, retryAt func(attempts int32) time.Time) (int32, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if err := order.ValidateTotals(); err != nil {
		return err
	}
	if order.Status == "" {
		order.Status = model.OrderPending
	}
	return r.conn(tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindWithItems(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id")
		}).
		Preload("Items.Product.Seller").
		Where("id = ?", orderID).
		First(&order).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) TransitionStatus(
	ctx context.Context,
	tx *gorm.DB,
	orderID string,
	to model.OrderStatus,
	from []model.OrderStatus,
	updates map[string]interface{},
) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}

	fields := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		fields[k] = v
	}

	result := r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status IN ?
		`,
			orderID,
			statusStrings(from),
		).
		Updates(fields)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) SetSettlement(ctx context.Context, tx *gorm.DB, orderID string, platformFee, sellerAmount decimal.Decimal) error {
	return r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"platform_fee":  platformFee,
			"seller_amount": sellerAmount,
			"updated_at":    time.Now(),
		}).Error
}

func (r *orderRepoImpl) HasSellerItems(ctx context.Context, tx *gorm.DB, orderID, sellerID string) (bool, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&model.OrderItem{}).
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ? AND products.seller_id = ?", orderID, sellerID).
		Count(&count).Error

	return count > 0, err
}

func (r *orderRepoImpl) FindPaidWithoutPayouts(ctx context.Context, limit int) ([]string, error) {
	var orderIDs []string
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Joins("JOIN payments ON payments.order_id = orders.id").
		Where("payments.status = ?", model.PaymentCompleted).
		Where("orders.status IN ?", statusStrings(PaidOrderStatuses)).
		Where("NOT EXISTS (SELECT 1 FROM payouts WHERE payouts.order_id = orders.id)").
		Where("EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id)").
		Where("(orders.payout_retry_at IS NULL OR orders.payout_retry_at <= ?)", time.Now()).
		Order("orders.payout_attempts").
		Order("orders.updated_at").
		Limit(limit).
		Pluck("orders.id", &orderIDs).Error

	if err != nil {
		return nil, err
	}

	return orderIDs, nil
}

func (r *orderRepoImpl) DeferPayoutSweep(ctx context.Context, orderID string, retryAt func(attempts int32) time.Time) (int32, error) {
	var attempts int32
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Select("id", "payout_attempts").Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
			}
			return err
		}

		attempts = order.PayoutAttempts + 1
		return tx.Model(&model.Order{}).
			Where("id = ?", orderID).
			UpdateColumns(map[string]interface{}{
				"payout_attempts": attempts,
				"payout_retry_at": retryAt(attempts),
			}).Error
	})
	if err != nil {
		return 0, err
	}

	return attempts, nil
}

// PaidOrderStatuses are the states an order can be in once its payment settled.
var PaidOrderStatuses = []model.OrderStatus{
	model.OrderConfirmed,
	model.OrderProcessing,
	model.OrderShipped,
	model.OrderDelivered,
}

func statusStrings(statuses []model.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
