// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"beautypro-payments/internal/model"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with every model migrated.
// A single connection serializes transactions the way row locks would in MySQL.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Line is a shorthand order line: seller, product and line total.
type Line struct {
	SellerID  string
	ProductID string
	Total     string
}

// SeedOrder stores sellers, products and a PENDING order whose subtotal is the sum of lines.
func SeedOrder(t *testing.T, db *gorm.DB, orderID string, lines ...Line) *model.Order {
	t.Helper()
	ctx := context.Background()

	subtotal := decimal.Zero
	items := make([]model.OrderItem, 0, len(lines))
	for i, l := range lines {
		productID := l.ProductID
		if productID == "" {
			productID = fmt.Sprintf("%s-p%d", orderID, i)
		}
		if l.SellerID != "" {
			require.NoError(t, db.WithContext(ctx).
				Where(model.Seller{ID: l.SellerID}).
				Attrs(model.Seller{Name: "Seller " + l.SellerID, Plan: model.PlanFree}).
				FirstOrCreate(&model.Seller{}).Error)
			require.NoError(t, db.WithContext(ctx).
				Where(model.Product{ID: productID}).
				Attrs(model.Product{SellerID: l.SellerID, Name: productID, Price: Dec(l.Total)}).
				FirstOrCreate(&model.Product{}).Error)
		}

		total := Dec(l.Total)
		subtotal = subtotal.Add(total)
		items = append(items, model.OrderItem{
			ProductID: productID,
			Quantity:  1,
			UnitPrice: total,
			Total:     total,
		})
	}

	order := &model.Order{
		ID:       orderID,
		BuyerID:  "buyer-1",
		Items:    items,
		Subtotal: subtotal,
		Total:    subtotal,
		Status:   model.OrderPending,
	}
	require.NoError(t, db.WithContext(ctx).Create(order).Error)
	return order
}

func CountRows(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}
