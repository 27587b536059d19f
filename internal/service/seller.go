package service

import (
	"beautypro-payments/internal/model"
	"beautypro-payments/internal/repository"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
)

type SellerService interface {
	UpdateFulfillment(ctx context.Context, sellerID, orderID string, to model.OrderStatus, trackingNumber string) (*model.Order, error)
}

type sellerServiceImpl struct {
	db         *gorm.DB
	orderRepo  repository.OrderRepository
	outboxRepo repository.OutboxRepository
	logger     *slog.Logger
}

func NewSellerService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	outboxRepo repository.OutboxRepository,
	logger *slog.Logger,
) SellerService {
	return &sellerServiceImpl{
		db:         db,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (s *sellerServiceImpl) UpdateFulfillment(ctx context.Context, sellerID, orderID string, to model.OrderStatus, trackingNumber string) (*model.Order, error) {
	from, ok := fulfillmentSources[to]
	if !ok {
		return nil, fmt.Errorf("%w: sellers cannot set %s", ErrInvalidTransition, to)
	}

	trackingNumber = strings.TrimSpace(trackingNumber)
	updates := map[string]interface{}{}
	now := time.Now()
	switch to {
	case model.OrderShipped:
		if trackingNumber == "" {
			return nil, ErrTrackingRequired
		}
		updates["tracking_number"] = trackingNumber
		updates["shipped_at"] = now
	case model.OrderDelivered:
		updates["delivered_at"] = now
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}

		owns, err := s.orderRepo.HasSellerItems(ctx, tx, orderID, sellerID)
		if err != nil {
			return fmt.Errorf("check order seller: %w", err)
		}
		if !owns {
			return ErrNotOrderSeller
		}

		moved, err := s.orderRepo.TransitionStatus(ctx, tx, orderID, to, from, updates)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if !moved {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
		}

		err = s.outboxRepo.Enqueue(ctx, tx, model.EventOrderStatusChanged, model.OrderStatusChanged{
			OrderID:   orderID,
			BuyerID:   current.BuyerID,
			From:      current.Status,
			To:        to,
			ChangedAt: now,
		})
		if err != nil {
			return fmt.Errorf("enqueue status notification: %w", err)
		}

		order, err = s.orderRepo.FindByID(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order fulfillment updated", "order_id", orderID, "seller_id", sellerID, "status", to)
	return order, nil
}
