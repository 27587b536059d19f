package service

import (
	"beautypro-payments/internal/config"
	"beautypro-payments/internal/model"

	"github.com/shopspring/decimal"
)

// FeeResolver is the single source of platform fee rates.
type FeeResolver interface {
	Rate(plan model.SellerPlan) decimal.Decimal
}

type planFeeResolver struct {
	defaultRate decimal.Decimal
	byPlan      map[model.SellerPlan]decimal.Decimal
}

func NewFeeResolver(cfg config.Fees) FeeResolver {
	return &planFeeResolver{
		defaultRate: cfg.Rate,
		byPlan: map[model.SellerPlan]decimal.Decimal{
			model.PlanFree:    cfg.Rate,
			model.PlanPro:     cfg.RatePro,
			model.PlanPremium: cfg.RatePremium,
		},
	}
}

func (r *planFeeResolver) Rate(plan model.SellerPlan) decimal.Decimal {
	if rate, ok := r.byPlan[plan]; ok {
		return rate
	}
	return r.defaultRate
}

// PlatformFee is gross × rate rounded to cents.
func PlatformFee(gross, rate decimal.Decimal) decimal.Decimal {
	return gross.Mul(rate).Round(2)
}
