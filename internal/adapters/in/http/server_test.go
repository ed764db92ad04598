package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"restaurant/internal/core/application/feed"
	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockCreateOrderHandler struct{ mock.Mock }

func (m *MockCreateOrderHandler) Handle(ctx context.Context, cmd commands.CreateOrderCommand) (kernel.OrderID, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(kernel.OrderID), args.Error(1)
}

type MockUpdateOrderStatusHandler struct{ mock.Mock }

func (m *MockUpdateOrderStatusHandler) Handle(ctx context.Context, cmd commands.UpdateOrderStatusCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

type MockGetOrderHandler struct{ mock.Mock }

func (m *MockGetOrderHandler) Handle(ctx context.Context, query queries.GetOrderQuery) (queries.OrderView, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.OrderView), args.Error(1)
}

type MockListOrdersHandler struct{ mock.Mock }

func (m *MockListOrdersHandler) Handle(ctx context.Context, query queries.ListOrdersQuery) ([]queries.OrderView, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.OrderView), args.Error(1)
}

type MockDailyOrdersHandler struct{ mock.Mock }

func (m *MockDailyOrdersHandler) Handle(
	ctx context.Context,
	query queries.GetDailyOrdersQuery,
) (queries.GetDailyOrdersQueryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.GetDailyOrdersQueryResponse), args.Error(1)
}

type countingGauge struct{ value atomic.Int64 }

func (g *countingGauge) Inc() { g.value.Add(1) }
func (g *countingGauge) Dec() { g.value.Add(-1) }

// manualNotifier lets the test trigger change notifications by hand.
type manualNotifier struct {
	changes chan struct{}
}

func (n *manualNotifier) Notifications(ctx context.Context) (<-chan struct{}, error) {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-n.changes:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

type ServerTestSuite struct {
	suite.Suite

	createOrder   *MockCreateOrderHandler
	updateStatus  *MockUpdateOrderStatusHandler
	retryStatus   *MockUpdateOrderStatusHandler
	getOrder      *MockGetOrderHandler
	listOrders    *MockListOrdersHandler
	dailyOrders   *MockDailyOrdersHandler
	subscribers   *countingGauge
	notifier      *manualNotifier
	logHook       *test.Hook
	server        *Server
	echo          *echo.Echo
	placedAt      time.Time
	processingAt  time.Time
	sampleOrderID kernel.OrderID
}

func (s *ServerTestSuite) SetupTest() {
	s.createOrder = &MockCreateOrderHandler{}
	s.updateStatus = &MockUpdateOrderStatusHandler{}
	s.retryStatus = &MockUpdateOrderStatusHandler{}
	s.getOrder = &MockGetOrderHandler{}
	s.listOrders = &MockListOrdersHandler{}
	s.dailyOrders = &MockDailyOrdersHandler{}
	s.subscribers = &countingGauge{}
	s.notifier = &manualNotifier{changes: make(chan struct{})}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s.logHook = hook

	orderFeed := feed.NewOrderFeed(s.notifier, s.listOrders, 10*time.Millisecond, logger)
	s.server = NewServer(
		s.createOrder,
		s.updateStatus,
		s.retryStatus,
		s.getOrder,
		s.listOrders,
		s.dailyOrders,
		orderFeed,
		s.subscribers,
		logger,
	)

	s.placedAt = time.Date(2026, 3, 14, 18, 45, 0, 0, time.UTC)
	s.processingAt = s.placedAt.Add(5 * time.Minute)
	s.server.now = func() time.Time { return s.placedAt.Add(time.Hour) }

	id, err := kernel.OrderIDFromString("4821093")
	s.Require().NoError(err)
	s.sampleOrderID = id

	e, err := NewEcho(s.T().Context(), s.server, Options{Logger: logger})
	s.Require().NoError(err)
	s.echo = e
}

func (s *ServerTestSuite) TearDownTest() {
	s.createOrder.AssertExpectations(s.T())
	s.updateStatus.AssertExpectations(s.T())
	s.retryStatus.AssertExpectations(s.T())
	s.getOrder.AssertExpectations(s.T())
	s.listOrders.AssertExpectations(s.T())
	s.dailyOrders.AssertExpectations(s.T())
}

func (s *ServerTestSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) decodeError(rec *httptest.ResponseRecorder) ErrorResponse {
	var response ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}

func (s *ServerTestSuite) sampleView() queries.OrderView {
	return queries.OrderView{
		ID:     s.sampleOrderID,
		Status: order.Processing,
		Customer: queries.CustomerView{
			Name:      "Awa Diop",
			Phone:     "+221770000000",
			Latitude:  14.6928,
			Longitude: -17.4467,
		},
		Items: []queries.ItemView{
			{
				ID:        "dibi",
				Name:      "Dibi",
				UnitPrice: 6000,
				Quantity:  2,
				Extras: []queries.ExtraView{
					{ID: "sauce-oignon", Name: "Sauce oignon", Price: 500},
					{Label: "bien cuit"},
				},
			},
		},
		Total:                 12500,
		PreferredDeliveryTime: "19:30",
		StatusHistory: []queries.StatusHistoryView{
			{Status: order.Pending, EnteredAt: s.placedAt},
			{Status: order.Processing, EnteredAt: s.processingAt},
		},
		CreatedAt: s.placedAt,
		UpdatedAt: s.processingAt,
	}
}

const newOrderBody = `{
	"customer": {
		"name": "Awa Diop",
		"phone": "+221770000000",
		"location": {"latitude": 14.6928, "longitude": -17.4467}
	},
	"items": [
		{
			"id": "dibi",
			"name": "Dibi",
			"price": 6000,
			"quantity": 2,
			"extras": [{"id": "sauce-oignon", "name": "Sauce oignon", "price": 500}, {"label": "bien cuit"}]
		}
	],
	"total": 12500,
	"preferredDeliveryTime": "19:30"
}`

func (s *ServerTestSuite) TestCreateOrder() {
	s.createOrder.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CreateOrderCommand) bool {
		return cmd.Validate() == nil &&
			cmd.Customer().Name() == "Awa Diop" &&
			len(cmd.Items()) == 1 &&
			len(cmd.Items()[0].Extras()) == 2 &&
			cmd.Total() == 12500 &&
			cmd.PreferredDeliveryTime() == "19:30"
	})).Return(s.sampleOrderID, nil).Once()

	rec := s.do(http.MethodPost, "/api/v1/orders", newOrderBody)

	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var response CreatedOrderResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("4821093", response.ID)
	s.Equal("#4821093", response.DisplayID)
}

func (s *ServerTestSuite) TestCreateOrderRejectedByContract() {
	testCases := []struct {
		name string
		body string
	}{
		{name: "no items", body: `{"customer": {"name": "Awa", "phone": "1", "location": {"latitude": 0, "longitude": 0}}, "items": [], "total": 0}`},
		{name: "zero quantity", body: strings.Replace(newOrderBody, `"quantity": 2`, `"quantity": 0`, 1)},
		{name: "latitude out of range", body: strings.Replace(newOrderBody, `14.6928`, `91`, 1)},
		{name: "missing customer", body: `{"items": [{"id": "a", "name": "A", "price": 1, "quantity": 1}], "total": 1}`},
		{name: "negative total", body: strings.Replace(newOrderBody, `"total": 12500`, `"total": -1`, 1)},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			rec := s.do(http.MethodPost, "/api/v1/orders", tc.body)

			s.Equal(http.StatusBadRequest, rec.Code)
			s.Contains(s.decodeError(rec).Message, "Invalid request")
		})
	}
}

func (s *ServerTestSuite) TestCreateOrderWithInvalidExtra() {
	body := strings.Replace(newOrderBody, `{"label": "bien cuit"}`, `{}`, 1)

	rec := s.do(http.MethodPost, "/api/v1/orders", body)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestCreateOrderIDCollision() {
	s.createOrder.On("Handle", mock.Anything, mock.Anything).
		Return(kernel.OrderID{}, errs.NewObjectAlreadyExistsError("order", "4821093")).Once()

	rec := s.do(http.MethodPost, "/api/v1/orders", newOrderBody)

	s.Equal(http.StatusConflict, rec.Code)
}

func (s *ServerTestSuite) TestGetOrder() {
	s.getOrder.On("Handle", mock.Anything, mock.MatchedBy(func(query queries.GetOrderQuery) bool {
		return query.OrderID().String() == "4821093"
	})).Return(s.sampleView(), nil).Once()

	rec := s.do(http.MethodGet, "/api/v1/orders/4821093", "")

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var response OrderResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("4821093", response.ID)
	s.Equal("#4821093", response.DisplayID)
	s.Equal("processing", response.Status)
	s.Equal("completed", response.NextStatus)
	s.Equal(int64(12500), response.Total)
	s.Require().Len(response.Items, 1)
	s.Equal([]ExtraDTO{{ID: "sauce-oignon", Name: "Sauce oignon", Price: 500}, {Label: "bien cuit"}}, response.Items[0].Extras)
	s.Len(response.StatusHistory, 2)
	s.True(response.StatusHistory["pending"].Equal(s.placedAt))
	s.True(response.StatusHistory["processing"].Equal(s.processingAt))
	s.Equal(14.6928, response.Customer.Location.Latitude)
}

func (s *ServerTestSuite) TestGetOrderNotFound() {
	s.getOrder.On("Handle", mock.Anything, mock.Anything).
		Return(queries.OrderView{}, errs.NewObjectNotFoundError("order", "4821093")).Once()

	rec := s.do(http.MethodGet, "/api/v1/orders/4821093", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(http.StatusNotFound, s.decodeError(rec).Code)
}

func (s *ServerTestSuite) TestGetOrderWithMalformedID() {
	for _, id := range []string{"123", "0123456", "12345678", "abcdefg"} {
		s.Run(id, func() {
			rec := s.do(http.MethodGet, "/api/v1/orders/"+id, "")

			s.Equal(http.StatusBadRequest, rec.Code)
		})
	}
}

func (s *ServerTestSuite) TestGetCorruptedOrderHidesDetails() {
	s.getOrder.On("Handle", mock.Anything, mock.Anything).
		Return(queries.OrderView{}, errs.NewObjectIsCorruptedError("order", "4821093")).Once()

	rec := s.do(http.MethodGet, "/api/v1/orders/4821093", "")

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("Internal server error", s.decodeError(rec).Message)
	s.Require().NotNil(s.logHook.LastEntry())
}

func (s *ServerTestSuite) TestListOrders() {
	s.listOrders.On("Handle", mock.Anything, mock.MatchedBy(func(query queries.ListOrdersQuery) bool {
		status, ok := query.Status()
		return ok && status == order.Processing && query.Search() == "awa"
	})).Return([]queries.OrderView{s.sampleView()}, nil).Once()

	rec := s.do(http.MethodGet, "/api/v1/orders?status=processing&q=awa", "")

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var response []OrderResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Require().Len(response, 1)
	s.Equal("4821093", response[0].ID)
}

func (s *ServerTestSuite) TestListOrdersWithoutFilters() {
	s.listOrders.On("Handle", mock.Anything, mock.MatchedBy(func(query queries.ListOrdersQuery) bool {
		_, ok := query.Status()
		return !ok && query.Search() == ""
	})).Return([]queries.OrderView{}, nil).Once()

	rec := s.do(http.MethodGet, "/api/v1/orders", "")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *ServerTestSuite) TestListOrdersWithSingleFilter() {
	tests := []struct {
		name       string
		target     string
		wantStatus string
		wantSearch string
	}{
		{name: "status_only", target: "/api/v1/orders?status=pending", wantStatus: "pending"},
		{name: "search_only", target: "/api/v1/orders?q=awa", wantSearch: "awa"},
		{name: "empty_search", target: "/api/v1/orders?q=", wantSearch: ""},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.listOrders.On("Handle", mock.Anything, mock.MatchedBy(func(query queries.ListOrdersQuery) bool {
				status, ok := query.Status()
				if tt.wantStatus == "" {
					return !ok && query.Search() == tt.wantSearch
				}
				return ok && status.String() == tt.wantStatus && query.Search() == tt.wantSearch
			})).Return([]queries.OrderView{}, nil).Once()

			rec := s.do(http.MethodGet, tt.target, "")

			s.Equal(http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}

func (s *ServerTestSuite) TestListOrdersWithUnknownStatus() {
	rec := s.do(http.MethodGet, "/api/v1/orders?status=shipped", "")

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestGetDailyOrders() {
	s.dailyOrders.On("Handle", mock.Anything, mock.MatchedBy(func(query queries.GetDailyOrdersQuery) bool {
		from, to := query.Range()
		return from.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) &&
			to.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)) &&
			query.Search() == "dibi"
	})).Return(queries.GetDailyOrdersQueryResponse{
		Orders:  []queries.OrderView{s.sampleView()},
		Counts:  map[order.Status]int{order.Pending: 0, order.Processing: 1, order.Completed: 0, order.Cancelled: 0},
		Revenue: 12500,
	}, nil).Once()

	rec := s.do(http.MethodGet, "/api/v1/orders/today?q=dibi", "")

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var response DailyOrdersResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("2026-03-14", response.Day)
	s.Len(response.Orders, 1)
	s.Equal(1, response.Counts["processing"])
	s.Equal(0, response.Counts["pending"])
	s.Equal(int64(12500), response.Revenue)
}

func (s *ServerTestSuite) TestGetDailyOrdersWithoutSearch() {
	s.dailyOrders.On("Handle", mock.Anything, mock.MatchedBy(func(query queries.GetDailyOrdersQuery) bool {
		return query.Search() == ""
	})).Return(queries.GetDailyOrdersQueryResponse{
		Orders: []queries.OrderView{},
		Counts: map[order.Status]int{order.Pending: 0, order.Processing: 0, order.Completed: 0, order.Cancelled: 0},
	}, nil).Once()

	rec := s.do(http.MethodGet, "/api/v1/orders/today", "")

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var response DailyOrdersResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Empty(response.Orders)
	s.Equal(int64(0), response.Revenue)
}

func (s *ServerTestSuite) TestUpdateOrderStatus() {
	s.updateStatus.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.UpdateOrderStatusCommand) bool {
		return cmd.OrderID().String() == "4821093" && cmd.Status() == order.Completed
	})).Return(nil).Once()

	rec := s.do(http.MethodPatch, "/api/v1/orders/4821093/status", `{"status": "completed"}`)

	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *ServerTestSuite) TestUpdateOrderStatusErrors() {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "illegal transition",
			err:      errs.NewTransitionIsInvalidError("order status", "completed", "cancelled"),
			expected: http.StatusConflict,
		},
		{
			name:     "not found",
			err:      errs.NewObjectNotFoundError("order", "4821093"),
			expected: http.StatusNotFound,
		},
		{
			name:     "concurrent update",
			err:      errs.NewVersionIsInvalidError("order 4821093"),
			expected: http.StatusServiceUnavailable,
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.updateStatus.On("Handle", mock.Anything, mock.Anything).Return(tc.err).Once()

			rec := s.do(http.MethodPatch, "/api/v1/orders/4821093/status", `{"status": "cancelled"}`)

			s.Equal(tc.expected, rec.Code)
			s.Equal(tc.expected, s.decodeError(rec).Code)
		})
	}
}

func (s *ServerTestSuite) TestUpdateOrderStatusRejectedByContract() {
	testCases := []struct {
		name   string
		target string
		body   string
	}{
		{name: "unknown status", target: "/api/v1/orders/4821093/status", body: `{"status": "shipped"}`},
		{name: "missing status", target: "/api/v1/orders/4821093/status", body: `{}`},
		{name: "malformed id", target: "/api/v1/orders/48210/status", body: `{"status": "completed"}`},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			rec := s.do(http.MethodPatch, tc.target, tc.body)

			s.Equal(http.StatusBadRequest, rec.Code)
		})
	}
}

func (s *ServerTestSuite) TestUpdateOrderStatusWithRetry() {
	s.retryStatus.On("Handle", mock.Anything, mock.Anything).Return(nil).Once()

	rec := s.do(http.MethodPut, "/api/v1/orders/4821093/status", `{"status": "processing"}`)

	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *ServerTestSuite) TestUpdateOrderStatusWithRetryExhausted() {
	exhausted := errs.NewRetriesAreExhaustedError(
		"update order 4821093 status", 3, errs.NewVersionIsInvalidError("order 4821093"),
	)
	s.retryStatus.On("Handle", mock.Anything, mock.Anything).Return(exhausted).Once()

	rec := s.do(http.MethodPut, "/api/v1/orders/4821093/status", `{"status": "processing"}`)

	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(s.decodeError(rec).Message, "3")
}

func (s *ServerTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Healthy", rec.Body.String())
}

func (s *ServerTestSuite) TestSwaggerDocument() {
	rec := s.do(http.MethodGet, "/swagger/doc.json", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "UpdateOrderStatusWithRetry")
}

func (s *ServerTestSuite) TestOrderFeed() {
	s.listOrders.On("Handle", mock.Anything, mock.MatchedBy(func(query queries.ListOrdersQuery) bool {
		status, ok := query.Status()
		return ok && status == order.Processing
	})).Return([]queries.OrderView{s.sampleView()}, nil).Twice()

	srv := httptest.NewServer(s.echo)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/orders/feed?status=processing"
	conn, resp, err := websocket.DefaultDialer.DialContext(s.T().Context(), url, nil)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var message FeedMessage
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	s.Require().NoError(conn.ReadJSON(&message))
	s.Require().Len(message.Orders, 1)
	s.Equal("4821093", message.Orders[0].ID)
	s.Nil(message.Error)
	s.Equal(int64(1), s.subscribers.value.Load())

	s.notifier.changes <- struct{}{}

	message = FeedMessage{}
	s.Require().NoError(conn.ReadJSON(&message))
	s.Len(message.Orders, 1)

	s.Require().NoError(conn.Close())
	s.Eventually(func() bool {
		return s.subscribers.value.Load() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func (s *ServerTestSuite) TestOrderFeedSendsErrors() {
	s.listOrders.On("Handle", mock.Anything, mock.Anything).
		Return(nil, errs.NewStoreIsUnavailableError("list orders", errors.New("connection refused"))).Once()

	srv := httptest.NewServer(s.echo)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/orders/feed"
	conn, resp, err := websocket.DefaultDialer.DialContext(s.T().Context(), url, nil)
	s.Require().NoError(err)
	defer resp.Body.Close()
	defer conn.Close()

	var message FeedMessage
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	s.Require().NoError(conn.ReadJSON(&message))
	s.Empty(message.Orders)
	s.Require().NotNil(message.Error)
	s.Equal(http.StatusServiceUnavailable, message.Error.Code)
}

func (s *ServerTestSuite) TestOrderFeedRejectsBadFilter() {
	rec := s.do(http.MethodGet, "/api/v1/orders/feed?status=shipped", "")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(int64(0), s.subscribers.value.Load())
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestStatusCode(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, statusCode(errs.NewValueIsRequiredError("status")))
	require.Equal(t, http.StatusBadRequest, statusCode(errs.NewValueIsOutOfRangeError("latitude", 91, -90, 90)))
	require.Equal(t, http.StatusServiceUnavailable, statusCode(errs.NewStoreIsUnavailableError("commit", errors.New("eof"))))
	require.Equal(t, http.StatusConflict, statusCode(errs.NewObjectAlreadyExistsError("order", "4821093")))
}
