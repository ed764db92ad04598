package commands

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrItemsAreRequired = errs.NewValueIsRequiredError("items")
)

// CreateOrderCommand represents a request to place a new restaurant order.
// The identifier is not part of the command: the handler generates it.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(customer, items, 6000, "19:30")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory, kernel.NewRandomOrderIDGenerator(), time.Now)
//	id, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
//	fmt.Printf("Order %s placed", id.Display())
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	customer              order.Customer
	items                 []order.Item
	total                 int64
	preferredDeliveryTime string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the customer, the items and the total.
// Returns every validation failure joined together.
func NewCreateOrderCommand(
	customer order.Customer,
	items []order.Item,
	total int64,
	preferredDeliveryTime string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCustomer(customer),
		cmd.setItems(items),
		cmd.setTotal(total),
	); err != nil {
		return CreateOrderCommand{}, err
	}
	cmd.preferredDeliveryTime = strings.TrimSpace(preferredDeliveryTime)

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) Customer() order.Customer {
	return c.customer
}

func (c CreateOrderCommand) Items() []order.Item {
	return slices.Clone(c.items)
}

// Total returns the order total in XOF.
func (c CreateOrderCommand) Total() int64 {
	return c.total
}

func (c CreateOrderCommand) PreferredDeliveryTime() string {
	return c.preferredDeliveryTime
}

func (c *CreateOrderCommand) setCustomer(customer order.Customer) error {
	if err := customer.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer", err)
	}

	c.customer = customer
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.Item) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}

	c.items = slices.Clone(items)
	return nil
}

func (c *CreateOrderCommand) setTotal(total int64) error {
	if total < 0 {
		return errs.NewValueIsInvalidErrorWithCause("total", fmt.Errorf("%d is negative", total))
	}

	c.total = total
	return nil
}
