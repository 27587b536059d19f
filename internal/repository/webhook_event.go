package repository

import (
	"beautypro-payments/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	// MarkProcessed records a delivery, counting repeats of the same event.
	MarkProcessed(ctx context.Context, tx *gorm.DB, event *model.WebhookEvent) error
	Get(ctx context.Context, eventID string) (*model.WebhookEvent, error)
}

type webhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryImpl{db: db}
}

func (r *webhookEventRepositoryImpl) MarkProcessed(ctx context.Context, tx *gorm.DB, event *model.WebhookEvent) error {
	if tx == nil {
		tx = r.db
	}
	now := time.Now()
	event.ProcessedAt = now
	event.Deliveries = 1

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"deliveries":   gorm.Expr("webhook_events.deliveries + ?", 1),
			"processed_at": now,
		}),
	}).Create(event).Error
}

func (r *webhookEventRepositoryImpl) Get(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}

	return &event, nil
}
