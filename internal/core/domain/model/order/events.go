package order

import (
	"time"

	"restaurant/internal/core/domain/model/kernel"
)

// Event names, used as outbox topics keys and in published payloads.
const (
	CreatedEventName       = "order.created"
	StatusChangedEventName = "order.status_changed"
)

// DomainEvent is something that happened to an order and is published after
// the transaction that produced it commits.
type DomainEvent interface {
	EventName() string
	AggregateID() kernel.OrderID
	OccurredAt() time.Time
}

// CreatedEvent is raised by NewOrder.
type CreatedEvent struct {
	OrderID      kernel.OrderID
	CustomerName string
	Total        int64
	ItemCount    int
	At           time.Time
}

func (e CreatedEvent) EventName() string { return CreatedEventName }
func (e CreatedEvent) AggregateID() kernel.OrderID { return e.OrderID }
func (e CreatedEvent) OccurredAt() time.Time { return e.At }

// StatusChangedEvent is raised by Order.ChangeStatus.
type StatusChangedEvent struct {
	OrderID kernel.OrderID
	From    Status
	To      Status
	At      time.Time
}

func (e StatusChangedEvent) EventName() string { return StatusChangedEventName }
func (e StatusChangedEvent) AggregateID() kernel.OrderID { return e.OrderID }
func (e StatusChangedEvent) OccurredAt() time.Time { return e.At }
