package service

import (
	"beautypro-payments/internal/model"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// SellerShare is one seller's part of an order after platform fee.
type SellerShare struct {
	SellerID string
	Plan     model.SellerPlan
	Items    int
	Gross    decimal.Decimal
	Fee      decimal.Decimal
	Net      decimal.Decimal
}

// SplitBySeller groups line totals by seller and applies each seller's fee rate
// to the seller's gross. Shares are ordered by seller id.
func SplitBySeller(items []model.OrderItem, fees FeeResolver) ([]SellerShare, error) {
	bySeller := make(map[string]*SellerShare)
	for _, item := range items {
		sellerID := item.Product.SellerID
		if sellerID == "" {
			return nil, fmt.Errorf("%w: item %d (product %q) has no seller", ErrMalformedItems, item.ID, item.ProductID)
		}
		if item.Total.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has negative total %s", ErrMalformedItems, item.ID, item.Total.StringFixed(2))
		}

		share, ok := bySeller[sellerID]
		if !ok {
			share = &SellerShare{SellerID: sellerID, Plan: item.Product.Seller.Plan}
			bySeller[sellerID] = share
		}
		share.Items++
		share.Gross = share.Gross.Add(item.Total)
	}

	shares := make([]SellerShare, 0, len(bySeller))
	for _, share := range bySeller {
		share.Fee = PlatformFee(share.Gross, fees.Rate(share.Plan))
		share.Net = share.Gross.Sub(share.Fee)
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool {
		return shares[i].SellerID < shares[j].SellerID
	})

	return shares, nil
}
