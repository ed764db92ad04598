// Package http exposes the order use cases over a JSON API built on echo.
package http

import (
	"context"
	"net/http"
	"time"

	"restaurant/internal/core/application/feed"
	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/errs"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	"github.com/sirupsen/logrus"
)

type (
	CreateOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (kernel.OrderID, error)
	}

	GetOrderHandler interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (queries.OrderView, error)
	}

	ListOrdersHandler interface {
		Handle(ctx context.Context, query queries.ListOrdersQuery) ([]queries.OrderView, error)
	}

	DailyOrdersHandler interface {
		Handle(ctx context.Context, query queries.GetDailyOrdersQuery) (queries.GetDailyOrdersQueryResponse, error)
	}

	OrderFeed interface {
		Subscribe(ctx context.Context, query queries.ListOrdersQuery) *feed.Subscription
	}

	// Gauge tracks open feed connections.
	Gauge interface {
		Inc()
		Dec()
	}
)

// Server handles the order API. It coordinates between HTTP handlers and
// application use cases.
type Server struct {
	// Command handlers
	createOrderHandler          CreateOrderHandler
	updateOrderStatusHandler    commands.UpdateOrderStatusHandler
	retryingUpdateStatusHandler commands.UpdateOrderStatusHandler

	// Query handlers
	getOrderHandler    GetOrderHandler
	listOrdersHandler  ListOrdersHandler
	dailyOrdersHandler DailyOrdersHandler

	orderFeed   OrderFeed
	subscribers Gauge
	upgrader    websocket.Upgrader
	now         func() time.Time
	logger      logrus.FieldLogger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler CreateOrderHandler,
	updateOrderStatusHandler commands.UpdateOrderStatusHandler,
	retryingUpdateStatusHandler commands.UpdateOrderStatusHandler,
	getOrderHandler GetOrderHandler,
	listOrdersHandler ListOrdersHandler,
	dailyOrdersHandler DailyOrdersHandler,
	orderFeed OrderFeed,
	subscribers Gauge,
	logger logrus.FieldLogger,
) *Server {
	return &Server{
		createOrderHandler:          createOrderHandler,
		updateOrderStatusHandler:    updateOrderStatusHandler,
		retryingUpdateStatusHandler: retryingUpdateStatusHandler,
		getOrderHandler:             getOrderHandler,
		listOrdersHandler:           listOrdersHandler,
		dailyOrdersHandler:          dailyOrdersHandler,
		orderFeed:                   orderFeed,
		subscribers:                 subscribers,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		now:    time.Now,
		logger: logger,
	}
}

// SetLocation makes the daily board use the calendar day of location.
func (s *Server) SetLocation(location *time.Location) {
	s.now = func() time.Time { return time.Now().In(location) }
}

// RegisterRoutes mounts the API under /api/v1.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/today", s.GetDailyOrders)
	api.GET("/orders/feed", s.OrderFeed)
	api.GET("/orders/:orderId", s.GetOrder)
	api.PATCH("/orders/:orderId/status", s.UpdateOrderStatus)
	api.PUT("/orders/:orderId/status", s.UpdateOrderStatusWithRetry)
}

// CreateOrder handles POST /api/v1/orders - places a new order.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var request NewOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	customer, items, err := request.toDomain()
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(customer, items, request.Total, request.PreferredDeliveryTime)
	if err != nil {
		return s.writeError(ctx, err)
	}

	orderID, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, CreatedOrderResponse{
		ID:        orderID.String(),
		DisplayID: orderID.Display(),
	})
}

// ListOrders handles GET /api/v1/orders - lists orders, newest first.
func (s *Server) ListOrders(ctx echo.Context) error {
	query, err := s.listOrdersQuery(ctx)
	if err != nil {
		return s.writeError(ctx, err)
	}

	views, err := s.listOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrderResponses(views))
}

// GetDailyOrders handles GET /api/v1/orders/today - the daily tracking board.
func (s *Server) GetDailyOrders(ctx echo.Context) error {
	var search *string
	if err := runtime.BindQueryParameter("form", true, false, "q", ctx.QueryParams(), &search); err != nil {
		return s.writeError(ctx, badParameter("q", err))
	}

	today := s.now()
	query, err := queries.NewGetDailyOrdersQuery(today, valueOf(search))
	if err != nil {
		return s.writeError(ctx, err)
	}

	daily, err := s.dailyOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	response := DailyOrdersResponse{
		Day:     today.Format(time.DateOnly),
		Orders:  toOrderResponses(daily.Orders),
		Counts:  make(map[string]int, len(daily.Counts)),
		Revenue: daily.Revenue,
	}
	for status, count := range daily.Counts {
		response.Counts[status.String()] = count
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return s.writeError(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	view, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrderResponse(view))
}

// UpdateOrderStatus handles PATCH /api/v1/orders/{orderId}/status with a
// single transaction attempt.
func (s *Server) UpdateOrderStatus(ctx echo.Context) error {
	return s.updateStatus(ctx, s.updateOrderStatusHandler)
}

// UpdateOrderStatusWithRetry handles PUT /api/v1/orders/{orderId}/status,
// retrying the transaction on contention.
func (s *Server) UpdateOrderStatusWithRetry(ctx echo.Context) error {
	return s.updateStatus(ctx, s.retryingUpdateStatusHandler)
}

func (s *Server) updateStatus(ctx echo.Context, handler commands.UpdateOrderStatusHandler) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return s.writeError(ctx, err)
	}

	var request StatusChangeRequest
	if err = ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	cmd, err := commands.NewUpdateOrderStatusCommand(orderID, request.Status)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err = handler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) listOrdersQuery(ctx echo.Context) (queries.ListOrdersQuery, error) {
	var status, search *string
	if err := runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &status); err != nil {
		return queries.ListOrdersQuery{}, badParameter("status", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "q", ctx.QueryParams(), &search); err != nil {
		return queries.ListOrdersQuery{}, badParameter("q", err)
	}
	return queries.NewListOrdersQuery(valueOf(status), valueOf(search))
}

// valueOf dereferences an optional query parameter.
func valueOf(param *string) string {
	if param == nil {
		return ""
	}
	return *param
}

func bindOrderID(ctx echo.Context) (string, error) {
	var orderID string
	err := runtime.BindStyledParameterWithLocation("simple", false, "orderId", runtime.ParamLocationPath,
		ctx.Param("orderId"), &orderID)
	if err != nil {
		return "", badParameter("orderId", err)
	}
	return orderID, nil
}

func badParameter(name string, err error) error {
	return errs.NewValueIsInvalidErrorWithCause(name, err)
}
