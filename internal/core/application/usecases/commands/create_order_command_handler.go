package commands

import (
	"context"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"
)

// CreateOrderCommandHandler handles the business logic for order creation.
// Generates a 7-digit identifier, checks it is free and stores the order in
// "pending" status with its first history entry.
//
// A taken identifier is reported as errs.ObjectAlreadyExistsError and nothing
// is stored; the caller may simply submit the command again. The same error is
// returned when another writer claims the identifier between the check and the
// insert, because the insert is guarded by the primary key.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, kernel.NewRandomOrderIDGenerator(), time.Now)
//	cmd, _ := NewCreateOrderCommand(customer, items, 6000, "")
//
//	id, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrObjectAlreadyExists) {
//	    id, err = handler.Handle(ctx, cmd)
//	}
type CreateOrderCommandHandler struct {
	uowFactory  OrderUoWFactory
	idGenerator kernel.OrderIDGenerator
	now         Clock
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
// Requires an OrderUoWFactory for transactional persistence.
func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	idGenerator kernel.OrderIDGenerator,
	now Clock,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory:  uowFactory,
		idGenerator: idGenerator,
		now:         now,
	}
}

// Handle processes the order creation command and returns the new identifier.
// Uses transaction to ensure order and history are persisted together or rolled back on error.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (kernel.OrderID, error) {
	if err := cmd.Validate(); err != nil {
		return kernel.OrderID{}, err
	}

	id := h.idGenerator.Generate()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return kernel.OrderID{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	exists, err := orderRepo.Exists(ctx, id)
	if err != nil {
		return kernel.OrderID{}, err
	}
	if exists {
		return kernel.OrderID{}, errs.NewObjectAlreadyExistsError("order", id.String())
	}

	aggregate, err := order.NewOrder(
		id,
		cmd.Customer(),
		cmd.Items(),
		cmd.Total(),
		cmd.PreferredDeliveryTime(),
		h.now(),
	)
	if err != nil {
		return kernel.OrderID{}, err
	}

	if err = orderRepo.Add(ctx, aggregate); err != nil {
		return kernel.OrderID{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return kernel.OrderID{}, err
	}

	return id, nil
}
