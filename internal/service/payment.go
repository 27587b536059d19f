package service

import (
	"beautypro-payments/internal/client"
	"beautypro-payments/internal/dto"
	"beautypro-payments/internal/model"
	"beautypro-payments/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/gorm"
)

const notificationTypePayment = "payment"

type PaymentService interface {
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) (*dto.WebhookResult, error)
}

type PaymentServiceOptions struct {
	WebhookSecret string
	Timeout       time.Duration
}

type paymentServiceImpl struct {
	db               *gorm.DB
	providerClient   client.ProviderClient
	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	webhookEventRepo repository.WebhookEventRepository
	outboxRepo       repository.OutboxRepository
	payoutService    PayoutService
	webhookSecret    string
	timeout          time.Duration
	logger           *slog.Logger
}

func NewPaymentService(
	db *gorm.DB,
	providerClient client.ProviderClient,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
	outboxRepo repository.OutboxRepository,
	payoutService PayoutService,
	opts PaymentServiceOptions,
	logger *slog.Logger,
) PaymentService {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	return &paymentServiceImpl{
		db:               db,
		providerClient:   providerClient,
		orderRepo:        orderRepo,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
		outboxRepo:       outboxRepo,
		payoutService:    payoutService,
		webhookSecret:    opts.WebhookSecret,
		timeout:          opts.Timeout,
		logger:           logger,
	}
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) (*dto.WebhookResult, error) {
	var notification model.ProviderNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if notification.Type != notificationTypePayment {
		s.logger.Debug("ignoring webhook", "type", notification.Type)
		return &dto.WebhookResult{Ignored: true}, nil
	}

	paymentID := notification.Data.ID.String()
	if paymentID == "" {
		return nil, fmt.Errorf("%w: missing data.id", ErrInvalidPayload)
	}

	if s.webhookSecret != "" {
		if err := verifySignature(s.webhookSecret, headers, paymentID, time.Now()); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payment, err := s.providerClient.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	result, err := s.applyPayment(ctx, paymentID, payment)
	if err != nil {
		return nil, fmt.Errorf("reconcile payment %s: %w", paymentID, err)
	}

	if payment.Status == providerStatusApproved {
		result.PayoutsCreated = s.settle(ctx, result)
	}

	return result, nil
}

// applyPayment persists the payment and the order status in one transaction.
func (s *paymentServiceImpl) applyPayment(ctx context.Context, paymentID string, payment *model.ProviderPayment) (*dto.WebhookResult, error) {
	orderID := payment.ExternalReference
	if orderID == "" {
		return nil, ErrMissingReference
	}

	orderStatus, paymentStatus := MapProviderStatus(payment.Status)
	result := &dto.WebhookResult{
		PaymentID:      paymentID,
		OrderID:        orderID,
		ProviderStatus: payment.Status,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}

		existing, err := s.paymentRepo.FindByOrderID(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("load payment: %w", err)
		}

		result.PaymentStatus = resolvePaymentStatus(existing, paymentStatus)
		err = s.paymentRepo.Upsert(ctx, tx, mergePayment(existing, orderID, payment, result.PaymentStatus))
		if err != nil {
			return fmt.Errorf("upsert payment: %w", err)
		}

		result.OrderStatus = order.Status
		if order.Status != orderStatus {
			moved, err := s.orderRepo.TransitionStatus(ctx, tx, orderID, orderStatus, webhookSources(orderStatus), nil)
			if err != nil {
				return fmt.Errorf("update order status: %w", err)
			}

			if moved {
				result.OrderStatus = orderStatus
				result.StatusChanged = true

				err = s.outboxRepo.Enqueue(ctx, tx, model.EventOrderStatusChanged, model.OrderStatusChanged{
					OrderID:   orderID,
					BuyerID:   order.BuyerID,
					From:      order.Status,
					To:        orderStatus,
					ChangedAt: time.Now(),
				})
				if err != nil {
					return fmt.Errorf("enqueue status notification: %w", err)
				}
			} else {
				s.logger.Warn("stale payment status ignored",
					"order_id", orderID,
					"payment_id", paymentID,
					"order_status", order.Status,
					"provider_status", payment.Status,
				)
			}
		}

		return s.webhookEventRepo.MarkProcessed(ctx, tx, &model.WebhookEvent{
			EventID:        fmt.Sprintf("payment:%s:%s", paymentID, payment.Status),
			EventType:      notificationTypePayment,
			PaymentID:      paymentID,
			OrderID:        orderID,
			ProviderStatus: payment.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// mergePayment builds the row to store for a delivery. A completed payment keeps
// the transaction that settled it; later deliveries for that same transaction
// only refresh the raw metadata.
func mergePayment(existing *model.Payment, orderID string, payment *model.ProviderPayment, status model.PaymentStatus) *model.Payment {
	next := &model.Payment{
		OrderID:       orderID,
		TransactionID: payment.ID.String(),
		Status:        status,
		Amount:        payment.TransactionAmount,
		Method:        payment.PaymentMethodID,
		Metadata:      string(payment.Raw),
	}

	if existing == nil || existing.Status != model.PaymentCompleted || payment.Status == providerStatusApproved {
		return next
	}

	next.TransactionID = existing.TransactionID
	next.Amount = existing.Amount
	next.Method = existing.Method
	if payment.ID.String() != existing.TransactionID {
		next.Metadata = existing.Metadata
	}
	return next
}

// settle runs the payout split. Failures are logged and never fail the webhook.
func (s *paymentServiceImpl) settle(ctx context.Context, result *dto.WebhookResult) int {
	if !isPaid(result.OrderStatus) {
		s.logger.Warn("approved payment for unpaid order, skipping payouts",
			"order_id", result.OrderID, "order_status", result.OrderStatus)
		return 0
	}

	// detached so a provider disconnect does not abort bookkeeping
	payoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	payouts, err := s.payoutService.CreatePayouts(payoutCtx, result.OrderID)
	switch {
	case errors.Is(err, ErrPayoutsExist):
		s.logger.Info("duplicate approved delivery, payouts already exist",
			"order_id", result.OrderID, "payment_id", result.PaymentID)
		return 0
	case err != nil:
		s.logger.Error("payout split failed",
			"order_id", result.OrderID, "payment_id", result.PaymentID, "err", err)
		return 0
	}

	return len(payouts)
}
