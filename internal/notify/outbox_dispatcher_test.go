package notify

import (
	"beautypro-payments/internal/model"
	"beautypro-payments/internal/repository"
	"beautypro-payments/internal/testutil"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	err      error
	keys     []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatch_PublishesAndMarksSent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOutboxRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, nil, model.EventOrderStatusChanged, model.OrderStatusChanged{
		OrderID: "ord_1", BuyerID: "buyer-1", From: model.OrderPending, To: model.OrderConfirmed,
	}))
	require.NoError(t, repo.Enqueue(ctx, nil, model.EventPayoutCreated, model.PayoutCreated{
		PayoutID: "po_1", SellerID: "A", OrderID: "ord_1", Amount: testutil.Dec("135.00"), Fee: testutil.Dec("15.00"),
	}))

	pub := &recordingPublisher{}
	d := NewOutboxDispatcher(repo, pub, time.Second, 10, discard())

	sent, err := d.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{model.EventOrderStatusChanged, model.EventPayoutCreated}, pub.keys)

	var env model.Envelope
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, pub.keys[0], env.EventType)
	assert.NotEmpty(t, env.Data)

	var pending int64
	require.NoError(t, db.Model(&model.OutboxEvent{}).Where("status <> ?", model.OutboxSent).Count(&pending).Error)
	assert.Zero(t, pending)

	sent, err = d.Dispatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, pub.keys, 2)
}

func TestDispatch_FailureReschedules(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOutboxRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, nil, model.EventPayoutCreated, model.PayoutCreated{PayoutID: "po_1"}))

	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewOutboxDispatcher(repo, pub, time.Second, 10, discard())

	before := time.Now()
	sent, err := d.Dispatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	var ev model.OutboxEvent
	require.NoError(t, db.First(&ev).Error)
	assert.Equal(t, model.OutboxPending, ev.Status)
	assert.EqualValues(t, 1, ev.Attempts)
	assert.True(t, ev.NextRetry.After(before))

	// not due yet
	sent, err = d.Dispatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, pub.keys, 1)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Second, retryDelay(0))
	assert.Equal(t, 2*time.Second, retryDelay(1))
	assert.Equal(t, 8*time.Second, retryDelay(3))
	assert.Equal(t, time.Minute, retryDelay(6))
	assert.Equal(t, time.Minute, retryDelay(40))
	assert.Equal(t, time.Second, retryDelay(-3))
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, pub.Publish(context.Background(), model.EventPayoutCreated, []byte(`{"x":1}`)))
	assert.Contains(t, buf.String(), model.EventPayoutCreated)
	assert.NoError(t, pub.Close())
}
