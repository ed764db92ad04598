package commands_test

import (
	"context"
	"testing"
	"time"

	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) Exists(ctx context.Context, id kernel.OrderID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockOrderIDGenerator struct{ mock.Mock }

func (m *MockOrderIDGenerator) Generate() kernel.OrderID {
	args := m.Called()
	return args.Get(0).(kernel.OrderID)
}

type MockStatusUpdateRecorder struct{ mock.Mock }

func (m *MockStatusUpdateRecorder) StatusChanged(from, to order.Status) {
	m.Called(from, to)
}

func (m *MockStatusUpdateRecorder) AttemptFailed(attempt int, err error) {
	m.Called(attempt, err)
}

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func mustOrderID(t *testing.T, s string) kernel.OrderID {
	t.Helper()
	id, err := kernel.OrderIDFromString(s)
	require.NoError(t, err)
	return id
}

func validCustomer(t *testing.T) order.Customer {
	t.Helper()
	location, err := kernel.NewLocation(14.7167, -17.4677)
	require.NoError(t, err)
	customer, err := order.NewCustomer("Fatou Ndiaye", "+221771112233", location)
	require.NoError(t, err)
	return customer
}

func validItems(t *testing.T) []order.Item {
	t.Helper()
	item, err := order.NewItem("thieb", "Thieboudienne", 6000, 1, nil)
	require.NoError(t, err)
	return []order.Item{item}
}

// storedOrder returns an order as the repository would load it, already
// moved through the given statuses after pending.
func storedOrder(t *testing.T, id string, path ...order.Status) *order.Order {
	t.Helper()
	o, err := order.NewOrder(mustOrderID(t, id), validCustomer(t), validItems(t), 6000, "", fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	for i, status := range path {
		require.NoError(t, o.ChangeStatus(status, fixedNow.Add(-time.Hour+time.Duration(i+1)*time.Minute)))
	}
	o.ClearDomainEvents()
	return o
}
