// Package outboxrepo stores domain events in the outbox table in the same
// transaction as the order change that raised them, and serves them to the
// relay job that publishes them.
package outboxrepo

import (
	"encoding/json"
	"fmt"
	"time"

	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/ports"

	"github.com/google/uuid"
)

// MessageDTO is one row of the outbox table.
type MessageDTO struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"not null"`
	AggregateID string     `gorm:"not null"`
	Payload     []byte     `gorm:"type:jsonb;not null"`
	OccurredAt  time.Time  `gorm:"not null"`
	ProcessedAt *time.Time `gorm:"index"`
}

func (MessageDTO) TableName() string {
	return "outbox"
}

// CreatedPayload is the published body of order.created.
type CreatedPayload struct {
	OrderID      string    `json:"orderId"`
	CustomerName string    `json:"customerName"`
	Total        int64     `json:"total"`
	ItemCount    int       `json:"itemCount"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// StatusChangedPayload is the published body of order.status_changed.
type StatusChangedPayload struct {
	OrderID    string    `json:"orderId"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurredAt"`
}

// fromEvent serializes a domain event into an outbox row.
func fromEvent(event order.DomainEvent) (MessageDTO, error) {
	var body any
	switch e := event.(type) {
	case order.CreatedEvent:
		body = CreatedPayload{
			OrderID:      e.OrderID.String(),
			CustomerName: e.CustomerName,
			Total:        e.Total,
			ItemCount:    e.ItemCount,
			OccurredAt:   e.At,
		}
	case order.StatusChangedEvent:
		body = StatusChangedPayload{
			OrderID:    e.OrderID.String(),
			From:       e.From.String(),
			To:         e.To.String(),
			OccurredAt: e.At,
		}
	default:
		return MessageDTO{}, fmt.Errorf("unsupported domain event %T", event)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return MessageDTO{}, fmt.Errorf("marshal %s: %w", event.EventName(), err)
	}

	// Version 7 ids grow monotonically, so they break ties between events
	// sharing an occurred_at in the order they were raised.
	id, err := uuid.NewV7()
	if err != nil {
		return MessageDTO{}, fmt.Errorf("outbox message id: %w", err)
	}

	return MessageDTO{
		ID:          id,
		Name:        event.EventName(),
		AggregateID: event.AggregateID().String(),
		Payload:     payload,
		OccurredAt:  event.OccurredAt(),
	}, nil
}

func toMessage(dto MessageDTO) ports.OutboxMessage {
	return ports.OutboxMessage{
		ID:          dto.ID,
		Name:        dto.Name,
		AggregateID: dto.AggregateID,
		Payload:     dto.Payload,
		OccurredAt:  dto.OccurredAt,
	}
}
