package queries

import (
	"errors"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves one order with its items and status history.
// Callers use it to confirm the outcome of a status update that timed out.
type GetOrderQuery struct {
	orderID kernel.OrderID
	guard   guard.ConstructorGuard
}

// NewGetOrderQuery parses the raw order identifier.
func NewGetOrderQuery(orderID string) (GetOrderQuery, error) {
	id, err := kernel.OrderIDFromString(orderID)
	if err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: id, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.OrderID {
	return q.orderID
}
