package commands

import (
	"context"

	"restaurant/internal/core/domain/model/order"
)

// StatusUpdateRecorder observes status updates for metrics.
type StatusUpdateRecorder interface {
	// StatusChanged is called after a transition has been committed.
	StatusChanged(from, to order.Status)
	// AttemptFailed is called for every failed attempt of the retrying handler.
	AttemptFailed(attempt int, err error)
}

type noopRecorder struct{}

func (noopRecorder) StatusChanged(_, _ order.Status) {}
func (noopRecorder) AttemptFailed(_ int, _ error) {}

// UpdateOrderStatusHandler is implemented by both status update handlers.
type UpdateOrderStatusHandler interface {
	Handle(ctx context.Context, cmd UpdateOrderStatusCommand) error
}

// UpdateOrderStatusCommandHandler applies a status change in a single
// transaction attempt.
//
// The order row is read with a row lock, the transition is validated against
// the locked state and the new status, updatedAt and history entry are written
// before the lock is released. Two concurrent updates of the same order are
// therefore serialized: the second one sees the first one's committed status.
//
// Errors:
//   - errs.ObjectNotFoundError if the order does not exist
//   - errs.ObjectIsCorruptedError if the stored order cannot be parsed
//   - errs.TransitionIsInvalidError if the move is not allowed from the stored status
//   - errs.StoreIsUnavailableError or errs.VersionIsInvalidError for transient failures
//
// No change is persisted on any error.
type UpdateOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	now        Clock
	recorder   StatusUpdateRecorder
}

// NewUpdateOrderStatusCommandHandler creates the single-attempt handler.
// A nil recorder disables metrics.
func NewUpdateOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	now Clock,
	recorder StatusUpdateRecorder,
) UpdateOrderStatusCommandHandler {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		now:        now,
		recorder:   recorder,
	}
}

// Handle processes the status update command.
func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	aggregate, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	from := aggregate.Status()
	if err = aggregate.ChangeStatus(cmd.Status(), h.now()); err != nil {
		return err
	}

	if err = orderRepo.UpdateStatus(ctx, aggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.recorder.StatusChanged(from, aggregate.Status())
	return nil
}
