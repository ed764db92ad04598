package commands

import (
	"errors"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/guard"
)

var ErrUpdateOrderStatusCommandIsNotConstructed = errors.New(
	"UpdateOrderStatusCommand must be created via NewUpdateOrderStatusCommand constructor",
)

// UpdateOrderStatusCommand requests moving one order to a new status.
//
// Example:
//
//	cmd, err := NewUpdateOrderStatusCommand("4821093", "processing")
//	if err != nil {
//	    return err // ValueIsRequiredError or ValueIsInvalidError
//	}
type UpdateOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.OrderID
	status  order.Status

	guard guard.ConstructorGuard
}

// NewUpdateOrderStatusCommand parses the raw identifier and status name.
// Empty values fail with errs.ValueIsRequiredError, malformed ones with
// errs.ValueIsInvalidError. Whether the transition is legal is decided by the
// handler against the stored order.
func NewUpdateOrderStatusCommand(orderID, status string) (UpdateOrderStatusCommand, error) {
	cmd := UpdateOrderStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	id, idErr := kernel.OrderIDFromString(orderID)
	target, statusErr := order.ParseStatus(status)
	if err := errors.Join(idErr, statusErr); err != nil {
		return UpdateOrderStatusCommand{}, err
	}

	cmd.orderID = id
	cmd.status = target
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusCommandIsNotConstructed)
}

func (c UpdateOrderStatusCommand) OrderID() kernel.OrderID {
	return c.orderID
}

// Status returns the requested target status.
func (c UpdateOrderStatusCommand) Status() order.Status {
	return c.status
}
