package service

import (
	"beautypro-payments/internal/model"
	"beautypro-payments/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PayoutService interface {
	// CreatePayouts writes one payout per seller of a paid order. It returns
	// ErrPayoutsExist when the order was already split.
	CreatePayouts(ctx context.Context, orderID string) ([]*model.Payout, error)
	// ReconcileMissingPayouts splits paid orders that have no payouts yet.
	ReconcileMissingPayouts(ctx context.Context, limit int) (int, error)
	ListSellerPayouts(ctx context.Context, sellerID string) ([]*model.Payout, error)
}

type payoutServiceImpl struct {
	db         *gorm.DB
	fees       FeeResolver
	orderRepo  repository.OrderRepository
	payoutRepo repository.PayoutRepository
	sellerRepo repository.SellerRepository
	outboxRepo repository.OutboxRepository
	logger     *slog.Logger
}

func NewPayoutService(
	db *gorm.DB,
	fees FeeResolver,
	orderRepo repository.OrderRepository,
	payoutRepo repository.PayoutRepository,
	sellerRepo repository.SellerRepository,
	outboxRepo repository.OutboxRepository,
	logger *slog.Logger,
) PayoutService {
	return &payoutServiceImpl{
		db:         db,
		fees:       fees,
		orderRepo:  orderRepo,
		payoutRepo: payoutRepo,
		sellerRepo: sellerRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (s *payoutServiceImpl) CreatePayouts(ctx context.Context, orderID string) ([]*model.Payout, error) {
	var created []*model.Payout

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.payoutRepo.ExistsForOrder(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("check existing payouts: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrPayoutsExist, orderID)
		}

		order, err := s.orderRepo.FindWithItems(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}

		shares, err := SplitBySeller(order.Items, s.fees)
		if err != nil {
			return err
		}

		totalFee, totalNet := decimal.Zero, decimal.Zero
		for _, share := range shares {
			payout := &model.Payout{
				ID:       uuid.NewString(),
				SellerID: share.SellerID,
				OrderID:  orderID,
				Amount:   share.Net,
				Fee:      share.Fee,
				Status:   model.PayoutPending,
			}

			inserted, err := s.payoutRepo.CreateIfAbsent(ctx, tx, payout)
			if err != nil {
				return fmt.Errorf("store payout for seller %s: %w", share.SellerID, err)
			}
			if !inserted {
				// a concurrent delivery got here first
				continue
			}

			if err := s.sellerRepo.IncrementSales(ctx, tx, share.SellerID); err != nil {
				return fmt.Errorf("increment sales for seller %s: %w", share.SellerID, err)
			}

			err = s.outboxRepo.Enqueue(ctx, tx, model.EventPayoutCreated, model.PayoutCreated{
				PayoutID: payout.ID,
				SellerID: payout.SellerID,
				OrderID:  payout.OrderID,
				Amount:   payout.Amount,
				Fee:      payout.Fee,
			})
			if err != nil {
				return fmt.Errorf("enqueue payout notification: %w", err)
			}

			totalFee = totalFee.Add(share.Fee)
			totalNet = totalNet.Add(share.Net)
			created = append(created, payout)
		}

		if len(shares) > 0 && len(created) == 0 {
			return fmt.Errorf("%w: %s", ErrPayoutsExist, orderID)
		}

		if err := s.orderRepo.SetSettlement(ctx, tx, orderID, totalFee, totalNet); err != nil {
			return fmt.Errorf("store order settlement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payouts created", "order_id", orderID, "payouts", len(created))
	return created, nil
}

func (s *payoutServiceImpl) ReconcileMissingPayouts(ctx context.Context, limit int) (int, error) {
	orderIDs, err := s.orderRepo.FindPaidWithoutPayouts(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("find orders missing payouts: %w", err)
	}

	settled := 0
	var errs []error
	for _, orderID := range orderIDs {
		payouts, err := s.CreatePayouts(ctx, orderID)
		switch {
		case err == nil:
			if len(payouts) > 0 {
				settled++
			}
		case errors.Is(err, ErrPayoutsExist):
		default:
			attempts, deferErr := s.orderRepo.DeferPayoutSweep(ctx, orderID, func(attempts int32) time.Time {
				return time.Now().Add(sweepRetryDelay(attempts))
			})
			if deferErr != nil {
				errs = append(errs, fmt.Errorf("defer sweep of order %s: %w", orderID, deferErr))
			}
			s.logger.Error("reconcile payouts failed", "order_id", orderID, "attempts", attempts, "err", err)
			errs = append(errs, fmt.Errorf("order %s: %w", orderID, err))
		}
	}

	return settled, errors.Join(errs...)
}

// sweepRetryDelay backs off failed sweeps from 5 minutes up to a day.
func sweepRetryDelay(attempts int32) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 9 {
		return 24 * time.Hour
	}
	delay := 5 * time.Minute << (attempts - 1)
	if delay > 24*time.Hour {
		delay = 24 * time.Hour
	}
	return delay
}

func (s *payoutServiceImpl) ListSellerPayouts(ctx context.Context, sellerID string) ([]*model.Payout, error) {
	return s.payoutRepo.ListBySeller(ctx, sellerID)
}
