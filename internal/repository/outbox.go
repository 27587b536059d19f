package repository

import (
	"beautypro-payments/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, tx *gorm.DB, eventType string, payload any) error
	// Claim leases up to limit due events; a lease that expires makes the event due again.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error)
	MarkSent(ctx context.Context, eventID string) error
	Reschedule(ctx context.Context, eventID string, nextRetry time.Time) error
}

type outboxRepoImpl struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepoImpl{
		db: db,
	}
}

func (r *outboxRepoImpl) Enqueue(ctx context.Context, tx *gorm.DB, eventType string, payload any) error {
	if tx == nil {
		tx = r.db
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	now := time.Now()
	return tx.WithContext(ctx).Create(&model.OutboxEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Payload:   string(body),
		Status:    model.OutboxPending,
		NextRetry: now,
		CreatedAt: now,
	}).Error
}

func (r *outboxRepoImpl) Claim(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error) {
	now := time.Now()

	var candidates []*model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status IN ? AND next_retry <= ?",
			[]string{string(model.OutboxPending), string(model.OutboxProcessing)}, now).
		Order("created_at").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}

	claimed := make([]*model.OutboxEvent, 0, len(candidates))
	releaseAt := now.Add(lease)
	for _, ev := range candidates {
		result := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
			Where("id = ? AND status IN ? AND next_retry <= ?",
				ev.ID, []string{string(model.OutboxPending), string(model.OutboxProcessing)}, now).
			Updates(map[string]interface{}{
				"status":     model.OutboxProcessing,
				"next_retry": releaseAt,
				"updated_at": now,
			})
		if result.Error != nil {
			return claimed, fmt.Errorf("claim outbox event %s: %w", ev.ID, result.Error)
		}
		if result.RowsAffected == 1 {
			ev.Status = model.OutboxProcessing
			claimed = append(claimed, ev)
		}
	}

	return claimed, nil
}

func (r *outboxRepoImpl) MarkSent(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":     model.OutboxSent,
			"updated_at": time.Now(),
		}).Error
}

func (r *outboxRepoImpl) Reschedule(ctx context.Context, eventID string, nextRetry time.Time) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":     model.OutboxPending,
			"attempts":   gorm.Expr("attempts + ?", 1),
			"next_retry": nextRetry,
			"updated_at": time.Now(),
		}).Error
}
