package service

import (
	"beautypro-payments/internal/config"
	"beautypro-payments/internal/model"
	"beautypro-payments/internal/repository"
	"beautypro-payments/internal/testutil"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeProvider struct {
	mu       sync.Mutex
	payments map[string]*model.ProviderPayment
	err      error
	calls    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{payments: map[string]*model.ProviderPayment{}}
}

func (f *fakeProvider) set(id, status, orderID, amount string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := &model.ProviderPayment{
		ID:                model.ProviderID(id),
		Status:            status,
		ExternalReference: orderID,
		TransactionAmount: decimal.RequireFromString(amount),
		PaymentMethodID:   "visa",
	}
	p.Raw, _ = json.Marshal(map[string]any{
		"id":                 id,
		"status":             status,
		"external_reference": orderID,
		"transaction_amount": amount,
		"payment_method_id":  "visa",
	})
	f.payments[id] = p
}

func (f *fakeProvider) GetPayment(ctx context.Context, paymentID string) (*model.ProviderPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	cp := *p
	return &cp, nil
}

type harness struct {
	db       *gorm.DB
	provider *fakeProvider
	payments PaymentService
	payouts  PayoutService
	sellers  SellerService

	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	payoutRepo       repository.PayoutRepository
	sellerRepo       repository.SellerRepository
	webhookEventRepo repository.WebhookEventRepository
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultFees() config.Fees {
	return config.Fees{
		Rate:        decimal.RequireFromString("0.10"),
		RatePro:     decimal.RequireFromString("0.10"),
		RatePremium: decimal.RequireFromString("0.10"),
	}
}

func newHarness(t *testing.T, opts PaymentServiceOptions) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	logger := discardLogger()

	h := &harness{
		db:               db,
		provider:         newFakeProvider(),
		orderRepo:        repository.NewOrderRepository(db),
		paymentRepo:      repository.NewPaymentRepository(db),
		payoutRepo:       repository.NewPayoutRepository(db),
		sellerRepo:       repository.NewSellerRepository(db),
		webhookEventRepo: repository.NewWebhookEventRepository(db),
	}
	outboxRepo := repository.NewOutboxRepository(db)

	h.payouts = NewPayoutService(db, NewFeeResolver(defaultFees()), h.orderRepo, h.payoutRepo, h.sellerRepo, outboxRepo, logger)
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	h.payments = NewPaymentService(db, h.provider, h.orderRepo, h.paymentRepo, h.webhookEventRepo, outboxRepo, h.payouts, opts, logger)
	h.sellers = NewSellerService(db, h.orderRepo, outboxRepo, logger)
	return h
}

func notification(typ, id string) []byte {
	return []byte(fmt.Sprintf(`{"type":%q,"data":{"id":%q}}`, typ, id))
}

func (h *harness) order(t *testing.T, orderID string) *model.Order {
	t.Helper()
	order, err := h.orderRepo.FindByID(context.Background(), nil, orderID)
	require.NoError(t, err)
	return order
}

func (h *harness) setOrderStatus(t *testing.T, orderID string, status model.OrderStatus) {
	t.Helper()
	require.NoError(t, h.db.Model(&model.Order{}).Where("id = ?", orderID).Update("status", status).Error)
}

func (h *harness) seller(t *testing.T, sellerID string) *model.Seller {
	t.Helper()
	seller, err := h.sellerRepo.Get(context.Background(), sellerID)
	require.NoError(t, err)
	return seller
}

// exampleOrder is ord_1 from the reconciliation walkthrough: two items for A, one for B.
func exampleOrder(t *testing.T, db *gorm.DB) *model.Order {
	return testutil.SeedOrder(t, db, "ord_1",
		testutil.Line{SellerID: "A", Total: "100.00"},
		testutil.Line{SellerID: "A", Total: "50.00"},
		testutil.Line{SellerID: "B", Total: "200.00"},
	)
}
