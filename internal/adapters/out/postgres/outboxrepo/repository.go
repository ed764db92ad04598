package outboxrepo

import (
	"context"
	"time"

	"restaurant/internal/adapters/out/postgres/pgerrs"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOutboxRepository implements ports.OutboxRepository using GORM.
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewGormOutboxRepository creates a new GORM outbox repository. Pass a
// transaction to make AddEvents part of it.
func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// AddEvents stores the events in the order given.
func (r *GormOutboxRepository) AddEvents(ctx context.Context, events ...order.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	dtos := make([]MessageDTO, 0, len(events))
	for _, event := range events {
		dto, err := fromEvent(event)
		if err != nil {
			return err
		}
		dtos = append(dtos, dto)
	}

	if err := r.db.WithContext(ctx).Create(&dtos).Error; err != nil {
		return pgerrs.Classify("insert outbox messages", err)
	}
	return nil
}

// GetUnprocessed returns up to limit messages not yet published, oldest first.
func (r *GormOutboxRepository) GetUnprocessed(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var dtos []MessageDTO
	err := r.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("occurred_at, id").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, pgerrs.Classify("select outbox messages", err)
	}

	messages := make([]ports.OutboxMessage, 0, len(dtos))
	for _, dto := range dtos {
		messages = append(messages, toMessage(dto))
	}
	return messages, nil
}

// MarkProcessed sets processed_at on the given messages.
func (r *GormOutboxRepository) MarkProcessed(ctx context.Context, processedAt time.Time, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&MessageDTO{}).
		Where("id IN ?", ids).
		Update("processed_at", processedAt).Error
	if err != nil {
		return pgerrs.Classify("mark outbox messages processed", err)
	}
	return nil
}
