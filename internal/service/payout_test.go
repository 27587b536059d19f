package service

import (
	"beautypro-payments/internal/model"
	"beautypro-payments/internal/repository"
	"beautypro-payments/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayouts_SecondCallReportsExisting(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})
	exampleOrder(t, h.db)
	ctx := context.Background()

	payouts, err := h.payouts.CreatePayouts(ctx, "ord_1")
	require.NoError(t, err)
	require.Len(t, payouts, 2)

	_, err = h.payouts.CreatePayouts(ctx, "ord_1")
	assert.ErrorIs(t, err, ErrPayoutsExist)

	assert.EqualValues(t, 2, testutil.CountRows(t, h.db, &model.Payout{}))
	assert.EqualValues(t, 1, h.seller(t, "A").TotalSales)
	assert.EqualValues(t, 2, testutil.CountRows(t, h.db, &model.OutboxEvent{}))
}

func TestCreatePayouts_PreservesSubtotal(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})
	testutil.SeedOrder(t, h.db, "ord_2",
		testutil.Line{SellerID: "A", Total: "19.99"},
		testutil.Line{SellerID: "B", Total: "0.05"},
		testutil.Line{SellerID: "C", Total: "33.33"},
		testutil.Line{SellerID: "C", Total: "12.34"},
	)

	payouts, err := h.payouts.CreatePayouts(context.Background(), "ord_2")
	require.NoError(t, err)
	require.Len(t, payouts, 3)

	order := h.order(t, "ord_2")
	sum := order.PlatformFee.Add(order.SellerAmount)
	assert.Equal(t, order.Subtotal.StringFixed(2), sum.StringFixed(2))

	for _, p := range payouts {
		assert.False(t, p.Amount.IsNegative())
		assert.False(t, p.Fee.IsNegative())
	}
}

func TestCreatePayouts_ZeroItems(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})
	testutil.SeedOrder(t, h.db, "ord_empty")

	payouts, err := h.payouts.CreatePayouts(context.Background(), "ord_empty")
	require.NoError(t, err)
	assert.Empty(t, payouts)

	order := h.order(t, "ord_empty")
	assert.Equal(t, "0.00", order.PlatformFee.StringFixed(2))
	assert.Equal(t, "0.00", order.SellerAmount.StringFixed(2))
}

func TestCreatePayouts_UnknownOrder(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})

	_, err := h.payouts.CreatePayouts(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestCreatePayouts_MalformedItemsRollBack(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})
	testutil.SeedOrder(t, h.db, "ord_bad",
		testutil.Line{SellerID: "A", Total: "10.00"},
		testutil.Line{ProductID: "ghost", Total: "5.00"},
	)

	_, err := h.payouts.CreatePayouts(context.Background(), "ord_bad")
	assert.ErrorIs(t, err, ErrMalformedItems)
	assert.Zero(t, testutil.CountRows(t, h.db, &model.Payout{}))
	assert.Zero(t, testutil.CountRows(t, h.db, &model.OutboxEvent{}))
}

func TestReconcileMissingPayouts(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})
	ctx := context.Background()

	// paid but never split
	exampleOrder(t, h.db)
	h.setOrderStatus(t, "ord_1", model.OrderConfirmed)
	require.NoError(t, h.paymentRepo.Upsert(ctx, nil, &model.Payment{
		OrderID: "ord_1", TransactionID: "pay_1", Status: model.PaymentCompleted, Amount: testutil.Dec("350.00"),
	}))

	// still pending
	testutil.SeedOrder(t, h.db, "ord_pending", testutil.Line{SellerID: "C", Total: "10.00"})
	require.NoError(t, h.paymentRepo.Upsert(ctx, nil, &model.Payment{
		OrderID: "ord_pending", TransactionID: "pay_2", Status: model.PaymentPending, Amount: testutil.Dec("10.00"),
	}))

	settled, err := h.payouts.ReconcileMissingPayouts(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.EqualValues(t, 2, testutil.CountRows(t, h.db, &model.Payout{}))

	settled, err = h.payouts.ReconcileMissingPayouts(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, settled)
}

func TestListSellerPayouts(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})
	ctx := context.Background()
	exampleOrder(t, h.db)
	testutil.SeedOrder(t, h.db, "ord_2", testutil.Line{SellerID: "A", Total: "20.00"})

	_, err := h.payouts.CreatePayouts(ctx, "ord_1")
	require.NoError(t, err)
	_, err = h.payouts.CreatePayouts(ctx, "ord_2")
	require.NoError(t, err)

	payouts, err := h.payouts.ListSellerPayouts(ctx, "A")
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	for _, p := range payouts {
		assert.Equal(t, "A", p.SellerID)
	}
	assert.EqualValues(t, 2, h.seller(t, "A").TotalSales)

	none, err := h.payouts.ListSellerPayouts(ctx, "Z")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func markPaid(t *testing.T, h *harness, orderID string) {
	t.Helper()
	h.setOrderStatus(t, orderID, model.OrderConfirmed)
	require.NoError(t, h.paymentRepo.Upsert(context.Background(), nil, &model.Payment{
		OrderID: orderID, TransactionID: "pay_" + orderID, Status: model.PaymentCompleted, Amount: testutil.Dec("1.00"),
	}))
}

func TestReconcileMissingPayouts_FailingOrderDoesNotBlockQueue(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})
	ctx := context.Background()

	testutil.SeedOrder(t, h.db, "bad_1",
		testutil.Line{SellerID: "A", Total: "10.00"},
		testutil.Line{ProductID: "ghost", Total: "5.00"},
	)
	testutil.SeedOrder(t, h.db, "empty_1")
	testutil.SeedOrder(t, h.db, "good_1", testutil.Line{SellerID: "B", Total: "20.00"})
	markPaid(t, h, "bad_1")
	markPaid(t, h, "empty_1")
	markPaid(t, h, "good_1")
	require.NoError(t, h.db.Model(&model.Order{}).Where("id = ?", "bad_1").
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	settled, err := h.payouts.ReconcileMissingPayouts(ctx, 1)
	assert.ErrorIs(t, err, ErrMalformedItems)
	assert.Zero(t, settled)

	bad := h.order(t, "bad_1")
	assert.EqualValues(t, 1, bad.PayoutAttempts)
	require.NotNil(t, bad.PayoutRetryAt)
	assert.True(t, bad.PayoutRetryAt.After(time.Now()))

	settled, err = h.payouts.ReconcileMissingPayouts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	payouts, err := h.payoutRepo.ListByOrder(ctx, "good_1")
	require.NoError(t, err)
	assert.Len(t, payouts, 1)

	for i := 0; i < 3; i++ {
		settled, err = h.payouts.ReconcileMissingPayouts(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, settled)
	}
	assert.EqualValues(t, 1, h.order(t, "bad_1").PayoutAttempts)
}

func TestReconcileMissingPayouts_SkipsOrdersWithoutItems(t *testing.T) {
	h := newHarness(t, PaymentServiceOptions{})
	testutil.SeedOrder(t, h.db, "empty_1")
	markPaid(t, h, "empty_1")

	for i := 0; i < 3; i++ {
		settled, err := h.payouts.ReconcileMissingPayouts(context.Background(), 10)
		require.NoError(t, err)
		assert.Zero(t, settled)
	}
}

func TestSweepRetryDelay(t *testing.T) {
	assert.Equal(t, 5*time.Minute, sweepRetryDelay(0))
	assert.Equal(t, 5*time.Minute, sweepRetryDelay(1))
	assert.Equal(t, 20*time.Minute, sweepRetryDelay(3))
	assert.Equal(t, 24*time.Hour, sweepRetryDelay(10))
	assert.Equal(t, 24*time.Hour, sweepRetryDelay(100))
}
