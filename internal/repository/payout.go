package repository

import (
	"beautypro-payments/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayoutRepository interface {
	ExistsForOrder(ctx context.Context, tx *gorm.DB, orderID string) (bool, error)
	// CreateIfAbsent reports false when a payout for the same order and seller already exists.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, payout *model.Payout) (bool, error)
	ListByOrder(ctx context.Context, orderID string) ([]*model.Payout, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*model.Payout, error)
}

type payoutRepoImpl struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepoImpl{
		db: db,
	}
}

func (r *payoutRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *payoutRepoImpl) ExistsForOrder(ctx context.Context, tx *gorm.DB, orderID string) (bool, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&model.Payout{}).
		Where("order_id = ?", orderID).
		Count(&count).Error

	return count > 0, err
}

func (r *payoutRepoImpl) CreateIfAbsent(ctx context.Context, tx *gorm.DB, payout *model.Payout) (bool, error) {
	result := r.conn(tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "seller_id"}},
		DoNothing: true,
	}).Create(payout)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *payoutRepoImpl) ListByOrder(ctx context.Context, orderID string) ([]*model.Payout, error) {
	var payouts []*model.Payout
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("seller_id").
		Find(&payouts).Error

	if err != nil {
		return nil, err
	}

	return payouts, nil
}

func (r *payoutRepoImpl) ListBySeller(ctx context.Context, sellerID string) ([]*model.Payout, error) {
	var payouts []*model.Payout
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&payouts).Error

	if err != nil {
		return nil, err
	}

	return payouts, nil
}
