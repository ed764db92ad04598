package commands_test

import (
	"errors"
	"testing"

	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCreateOrderCommand(t *testing.T) commands.CreateOrderCommand {
	t.Helper()
	cmd, err := commands.NewCreateOrderCommand(validCustomer(t), validItems(t), 6000, "")
	require.NoError(t, err)
	return cmd
}

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t)
	id := mustOrderID(t, "4821093")

	generator := new(MockOrderIDGenerator)
	generator.On("Generate").Return(id).Once()

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Exists", ctx, id).Return(false, nil).Once(),
		repo.On("Add", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.ID().IsEqual(id) &&
				o.Status() == order.Pending &&
				o.CreatedAt().Equal(fixedNow) &&
				o.History().Has(order.Pending) &&
				o.Total() == 6000
		})).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, generator, fixedClock)
	created, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, created.IsEqual(id))
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.CreateOrderCommand{} // not constructed properly
	factory := new(MockOrderUoWFactory)
	generator := new(MockOrderIDGenerator)

	h := commands.NewCreateOrderCommandHandler(factory, generator, fixedClock)
	_, err := h.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
	generator.AssertNotCalled(t, "Generate")
}

func TestCreateOrderCommandHandler_Handle_Collision(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t)
	id := mustOrderID(t, "1111111")

	generator := new(MockOrderIDGenerator)
	generator.On("Generate").Return(id).Once()

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Exists", ctx, id).Return(true, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, generator, fixedClock)
	_, err := h.Handle(ctx, cmd)

	var collision *errs.ObjectAlreadyExistsError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "1111111", collision.ID)
	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
	uow.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_InsertRace(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t)
	id := mustOrderID(t, "2222222")

	generator := new(MockOrderIDGenerator)
	generator.On("Generate").Return(id).Once()

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Exists", ctx, id).Return(false, nil).Once(),
		repo.On("Add", ctx, mock.AnythingOfType("*order.Order")).
			Return(errs.NewObjectAlreadyExistsError("order", id.String())).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, generator, fixedClock)
	_, err := h.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectAlreadyExists)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
	uow.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_BeginError(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t)

	generator := new(MockOrderIDGenerator)
	generator.On("Generate").Return(mustOrderID(t, "4821093")).Once()

	uow := new(MockOrderUoW)
	factory := new(MockOrderUoWFactory)
	mock.InOrder(
		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", ctx).Return(errors.New("begin error")).Once(),
	)

	h := commands.NewCreateOrderCommandHandler(factory, generator, fixedClock)
	_, err := h.Handle(ctx, cmd)

	require.EqualError(t, err, "begin error")
	uow.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_ExistsError(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t)
	id := mustOrderID(t, "4821093")

	generator := new(MockOrderIDGenerator)
	generator.On("Generate").Return(id).Once()

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Exists", ctx, id).Return(false, errs.NewStoreIsUnavailableError("exists", errors.New("eof"))).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, generator, fixedClock)
	_, err := h.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrStoreIsUnavailable)
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_CommitError(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t)
	id := mustOrderID(t, "4821093")

	generator := new(MockOrderIDGenerator)
	generator.On("Generate").Return(id).Once()

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Exists", ctx, id).Return(false, nil).Once(),
		repo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(errors.New("commit error")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateOrderCommandHandler(factory, generator, fixedClock)
	created, err := h.Handle(ctx, cmd)

	require.EqualError(t, err, "commit error")
	require.Error(t, created.Validate())
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
}
