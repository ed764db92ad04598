package queries_test

import (
	"context"
	"testing"
	"time"

	"restaurant/internal/adapters/out/postgres/migrations"
	"restaurant/internal/adapters/out/postgres/orderrepo"
	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type mockAggregateTracker struct{}

func (m *mockAggregateTracker) TrackAggregate(_ kernel.OrderID, _ any) {
	// No-op for query tests
}

type OrderQueriesIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	orderRepo *orderrepo.GormOrderRepository
	day       time.Time
}

func (suite *OrderQueriesIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)
	suite.Require().NoError(migrations.Up(dsn))

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.orderRepo = orderrepo.NewGormOrderRepository(db, &mockAggregateTracker{})
	suite.day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
}

func (suite *OrderQueriesIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderQueriesIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec(
		"TRUNCATE TABLE orders, order_items, order_status_history, outbox CASCADE").Error)
}

// addOrder stores an order placed at placedAt and walks it through statuses,
// one minute apart.
func (suite *OrderQueriesIntegrationTestSuite) addOrder(
	id, customerName, itemName string,
	total int64,
	placedAt time.Time,
	statuses ...order.Status,
) {
	orderID, err := kernel.OrderIDFromString(id)
	suite.Require().NoError(err)
	location, err := kernel.NewLocation(14.6928, -17.4467)
	suite.Require().NoError(err)
	customer, err := order.NewCustomer(customerName, "+221770000000", location)
	suite.Require().NoError(err)
	label, err := order.NewLabelExtra("sans piment")
	suite.Require().NoError(err)
	item, err := order.NewItem("item-"+id, itemName, total, 1, []order.Extra{label})
	suite.Require().NoError(err)

	aggregate, err := order.NewOrder(orderID, customer, []order.Item{item}, total, "20:00", placedAt)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.orderRepo.Add(context.Background(), aggregate))

	at := placedAt
	for _, status := range statuses {
		at = at.Add(time.Minute)
		stored, getErr := suite.orderRepo.Get(context.Background(), orderID)
		suite.Require().NoError(getErr)
		suite.Require().NoError(stored.ChangeStatus(status, at))
		suite.Require().NoError(suite.orderRepo.UpdateStatus(context.Background(), stored))
	}
}

func (suite *OrderQueriesIntegrationTestSuite) seed() {
	suite.addOrder("1000001", "Awa Diop", "Dibi mouton", 6000, suite.day.Add(12*time.Hour))
	suite.addOrder("1000002", "Moussa Ndiaye", "Thieboudienne", 4500, suite.day.Add(13*time.Hour), order.Processing)
	suite.addOrder("1000003", "Fatou Sall", "Yassa poulet", 3500, suite.day.Add(14*time.Hour),
		order.Processing, order.Completed)
	suite.addOrder("1000004", "Awa Fall", "Bissap 50%", 1000, suite.day.Add(15*time.Hour), order.Cancelled)
	suite.addOrder("1000005", "Ibrahima Ba", "Mafé", 5000, suite.day.Add(-2*time.Hour),
		order.Processing, order.Completed)
}

func (suite *OrderQueriesIntegrationTestSuite) ids(views []queries.OrderView) []string {
	ids := make([]string, 0, len(views))
	for _, view := range views {
		ids = append(ids, view.ID.String())
	}
	return ids
}

func (suite *OrderQueriesIntegrationTestSuite) TestGetOrder() {
	suite.seed()
	query, err := queries.NewGetOrderQuery("1000003")
	suite.Require().NoError(err)

	view, err := queries.NewGetOrderQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal("#1000003", view.DisplayID())
	suite.Equal(order.Completed, view.Status)
	suite.Equal("Fatou Sall", view.Customer.Name)
	suite.Equal(int64(3500), view.Total)
	suite.Equal("20:00", view.PreferredDeliveryTime)
	suite.Require().Len(view.Items, 1)
	suite.Equal("Yassa poulet", view.Items[0].Name)
	suite.Equal([]queries.ExtraView{{Label: "sans piment"}}, view.Items[0].Extras)
	suite.Require().Len(view.StatusHistory, 3)
	suite.Equal(order.Pending, view.StatusHistory[0].Status)
	suite.Equal(order.Processing, view.StatusHistory[1].Status)
	suite.Equal(order.Completed, view.StatusHistory[2].Status)
	suite.WithinDuration(suite.day.Add(14*time.Hour+2*time.Minute), view.UpdatedAt, 0)
}

func (suite *OrderQueriesIntegrationTestSuite) TestGetOrder_NotFound() {
	query, err := queries.NewGetOrderQuery("9999999")
	suite.Require().NoError(err)

	_, err = queries.NewGetOrderQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderQueriesIntegrationTestSuite) TestGetOrder_Corrupted() {
	suite.seed()
	suite.Require().NoError(suite.db.Exec("UPDATE orders SET status = 'shipped' WHERE id = '1000002'").Error)
	query, err := queries.NewGetOrderQuery("1000002")
	suite.Require().NoError(err)

	_, err = queries.NewGetOrderQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectIsCorrupted)
}

func (suite *OrderQueriesIntegrationTestSuite) TestListOrders() {
	suite.seed()
	handler := queries.NewListOrdersQueryHandler(suite.db)

	testCases := []struct {
		name     string
		status   string
		search   string
		expected []string
	}{
		{name: "all, newest first", expected: []string{"1000004", "1000003", "1000002", "1000001", "1000005"}},
		{name: "by status", status: "completed", expected: []string{"1000003", "1000005"}},
		{name: "by customer name", search: "awa", expected: []string{"1000004", "1000001"}},
		{name: "by item name", search: "YASSA", expected: []string{"1000003"}},
		{name: "by id", search: "00002", expected: []string{"1000002"}},
		{name: "status and search", status: "pending", search: "awa", expected: []string{"1000001"}},
		{name: "wildcards are literal", search: "50%", expected: []string{"1000004"}},
		{name: "underscore is literal", search: "_", expected: []string{}},
		{name: "no match", search: "pizza", expected: []string{}},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			query, err := queries.NewListOrdersQuery(tc.status, tc.search)
			suite.Require().NoError(err)

			views, err := handler.Handle(context.Background(), query)

			suite.Require().NoError(err)
			suite.NotNil(views)
			suite.Equal(tc.expected, suite.ids(views))
		})
	}
}

func (suite *OrderQueriesIntegrationTestSuite) TestListOrders_CorruptedRowFailsTheRead() {
	suite.seed()
	suite.Require().NoError(suite.db.Exec("UPDATE order_items SET extras = '{}' WHERE order_id = '1000001'").Error)
	query, err := queries.NewListOrdersQuery("", "")
	suite.Require().NoError(err)

	_, err = queries.NewListOrdersQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectIsCorrupted)
}

func (suite *OrderQueriesIntegrationTestSuite) TestGetDailyOrders() {
	suite.seed()
	query, err := queries.NewGetDailyOrdersQuery(suite.day.Add(20*time.Hour), "")
	suite.Require().NoError(err)

	daily, err := queries.NewGetDailyOrdersQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal([]string{"1000004", "1000003", "1000002", "1000001"}, suite.ids(daily.Orders))
	suite.Equal(map[order.Status]int{
		order.Pending:    1,
		order.Processing: 1,
		order.Completed:  1,
		order.Cancelled:  1,
	}, daily.Counts)
	suite.Equal(int64(3500), daily.Revenue)
}

func (suite *OrderQueriesIntegrationTestSuite) TestGetDailyOrders_EmptyDayHasZeroCounts() {
	suite.seed()
	query, err := queries.NewGetDailyOrdersQuery(suite.day.AddDate(0, 0, 5), "")
	suite.Require().NoError(err)

	daily, err := queries.NewGetDailyOrdersQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Empty(daily.Orders)
	suite.Len(daily.Counts, 4)
	for _, count := range daily.Counts {
		suite.Zero(count)
	}
	suite.Zero(daily.Revenue)
}

func (suite *OrderQueriesIntegrationTestSuite) TestGetDailyOrders_WithSearch() {
	suite.seed()
	query, err := queries.NewGetDailyOrdersQuery(suite.day, "awa")
	suite.Require().NoError(err)

	daily, err := queries.NewGetDailyOrdersQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal([]string{"1000004", "1000001"}, suite.ids(daily.Orders))
	suite.Equal(1, daily.Counts[order.Cancelled])
	suite.Equal(1, daily.Counts[order.Pending])
	suite.Zero(daily.Revenue)
}

func TestOrderQueriesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OrderQueriesIntegrationTestSuite))
}
