package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is a domain event stored in the same transaction as the
// change that raised it, waiting to be published.
type OutboxMessage struct {
	ID          uuid.UUID
	Name        string
	AggregateID string
	Payload     []byte
	OccurredAt  time.Time
}

// OutboxRepository reads and acknowledges stored events.
type OutboxRepository interface {
	// GetUnprocessed returns up to limit unpublished messages, oldest first.
	GetUnprocessed(ctx context.Context, limit int) ([]OutboxMessage, error)

	// MarkProcessed flags messages as published at the given time.
	MarkProcessed(ctx context.Context, processedAt time.Time, ids ...uuid.UUID) error
}

// EventPublisher delivers outbox messages to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, message OutboxMessage) error
	Close() error
}

// OrderChangeNotifier signals that some order was created or changed.
// Each signal carries no payload; listeners re-read the orders they need.
type OrderChangeNotifier interface {
	// Notifications returns a channel receiving one value per change burst.
	// The channel is closed once ctx is done or the notifier is closed.
	Notifications(ctx context.Context) (<-chan struct{}, error)
}
