// Package ports defines the contracts between the restaurant order core and
// its infrastructure: persistence, transactions, event publishing and change
// notifications. Adapters implement them; use cases depend only on them.
package ports

import (
	"context"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Implementations parse every stored row back into a valid order.Order and
// report rows they cannot parse as errs.ObjectIsCorruptedError.
type OrderRepository interface {
	// Add persists a new order together with its first history entry.
	// Returns errs.ObjectAlreadyExistsError if the identifier is already taken.
	Add(ctx context.Context, aggregate *order.Order) error

	// UpdateStatus persists the current status, updatedAt and any history
	// entries not yet stored. It succeeds only if the stored version still
	// equals aggregate.Version(); otherwise errs.VersionIsInvalidError is returned.
	UpdateStatus(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by identifier.
	// Returns errs.ObjectNotFoundError if it does not exist.
	Get(ctx context.Context, id kernel.OrderID) (*order.Order, error)

	// GetForUpdate retrieves an order and locks its row until the surrounding
	// transaction ends. Must be called inside UnitOfWork.Begin/Commit.
	GetForUpdate(ctx context.Context, id kernel.OrderID) (*order.Order, error)

	// Exists reports whether an order with the identifier is stored.
	Exists(ctx context.Context, id kernel.OrderID) (bool, error)
}
