package repository

import (
	"beautypro-payments/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SellerRepository interface {
	Upsert(ctx context.Context, seller *model.Seller) error
	Get(ctx context.Context, sellerID string) (*model.Seller, error)
	IncrementSales(ctx context.Context, tx *gorm.DB, sellerID string) error
}

type sellerRepoImpl struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) SellerRepository {
	return &sellerRepoImpl{
		db: db,
	}
}

func (r *sellerRepoImpl) Upsert(ctx context.Context, seller *model.Seller) error {
	if seller.Plan == "" {
		seller.Plan = model.PlanFree
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":       seller.Name,
			"plan":       seller.Plan,
			"updated_at": time.Now(),
		}),
	}).Create(seller).Error
}

func (r *sellerRepoImpl) Get(ctx context.Context, sellerID string) (*model.Seller, error) {
	var seller model.Seller
	err := r.db.WithContext(ctx).
		Where("id = ?", sellerID).
		First(&seller).Error
	if err != nil {
		return nil, err
	}

	return &seller, nil
}

func (r *sellerRepoImpl) IncrementSales(ctx context.Context, tx *gorm.DB, sellerID string) error {
	result := tx.WithContext(ctx).Model(&model.Seller{}).
		Where("id = ?", sellerID).
		Updates(map[string]interface{}{
			"total_sales": gorm.Expr("total_sales + ?", 1),
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
