package notify

import (
	"beautypro-payments/internal/model"
	"beautypro-payments/internal/repository"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const claimLease = 30 * time.Second

// OutboxDispatcher publishes outbox events. Failed publishes are retried with
// backoff and never touch the state the event describes.
type OutboxDispatcher struct {
	outboxRepo repository.OutboxRepository
	publisher  Publisher
	interval   time.Duration
	batchSize  int
	logger     *slog.Logger
}

func NewOutboxDispatcher(outboxRepo repository.OutboxRepository, publisher Publisher, interval time.Duration, batch int, logger *slog.Logger) *OutboxDispatcher {
	if batch <= 0 {
		batch = 32
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxDispatcher{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batch,
		logger:     logger,
	}
}

func (d *OutboxDispatcher) Start(ctx context.Context) {
	go d.loop(ctx)
}

func (d *OutboxDispatcher) loop(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if _, err := d.Dispatch(ctx); err != nil {
			d.logger.Error("outbox dispatch failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Dispatch publishes one batch and returns how many events were sent.
func (d *OutboxDispatcher) Dispatch(ctx context.Context) (int, error) {
	events, err := d.outboxRepo.Claim(ctx, d.batchSize, claimLease)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ev := range events {
		if err := d.publishOne(ctx, ev); err != nil {
			d.logger.Warn("publish event failed", "event_id", ev.ID, "event_type", ev.EventType, "attempts", ev.Attempts+1, "err", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (d *OutboxDispatcher) publishOne(ctx context.Context, ev *model.OutboxEvent) error {
	body, err := json.Marshal(model.Envelope{
		EventID:   ev.ID,
		EventType: ev.EventType,
		CreatedAt: ev.CreatedAt,
		Data:      json.RawMessage(ev.Payload),
	})
	if err != nil {
		return d.markFailure(ctx, ev, fmt.Errorf("marshal envelope: %w", err))
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, ev.EventType, body); err != nil {
		return d.markFailure(ctx, ev, err)
	}

	return d.outboxRepo.MarkSent(ctx, ev.ID)
}

func (d *OutboxDispatcher) markFailure(ctx context.Context, ev *model.OutboxEvent, publishErr error) error {
	nextRetry := time.Now().Add(retryDelay(int(ev.Attempts) + 1))
	if err := d.outboxRepo.Reschedule(ctx, ev.ID, nextRetry); err != nil {
		return fmt.Errorf("update retry: %w", err)
	}
	return publishErr
}

func retryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 6 {
		attempts = 6
	}
	delay := time.Duration(1<<attempts) * time.Second
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}
