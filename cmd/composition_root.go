package cmd

import (
	"time"

	"restaurant/internal/adapters/in/http"
	"restaurant/internal/adapters/out/metrics"
	"restaurant/internal/adapters/out/postgres"
	"restaurant/internal/adapters/out/postgres/migrations"
	"restaurant/internal/adapters/out/postgres/outboxrepo"
	"restaurant/internal/adapters/out/postgres/pgnotify"
	"restaurant/internal/core/application/feed"
	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/ports"
	"restaurant/internal/jobs"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	metrics    *metrics.Metrics
	location   *time.Location
	logger     logrus.FieldLogger
}

func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	collectors *metrics.Metrics,
	location *time.Location,
	logger logrus.FieldLogger,
) CompositionRoot {
	return CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		metrics:    collectors,
		location:   location,
		logger:     logger,
	}
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), kernel.NewRandomOrderIDGenerator(), time.Now)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	return commands.NewUpdateOrderStatusCommandHandler(c.orderUoWFactory(), time.Now, c.metrics)
}

func (c *CompositionRoot) CreateRetryingUpdateOrderStatusCommandHandler() commands.RetryingUpdateOrderStatusCommandHandler {
	single := c.CreateUpdateOrderStatusCommandHandler()
	policy := commands.RetryPolicy{
		MaxAttempts: c.config.StatusUpdateMaxAttempts,
		BaseDelay:   c.config.StatusUpdateBaseDelay,
	}
	return commands.NewRetryingUpdateOrderStatusCommandHandler(
		&single, policy, commands.SleepContext, c.metrics, c.logger.WithField("component", "status_updater"),
	)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetDailyOrdersQueryHandler() queries.GetDailyOrdersQueryHandler {
	return queries.NewGetDailyOrdersQueryHandler(c.gormDB)
}

// CreateOrderFeed returns the live feed. Every subscription holds its own
// LISTEN connection.
func (c *CompositionRoot) CreateOrderFeed() *feed.OrderFeed {
	listener := pgnotify.NewListener(c.config.DSN(), migrations.NotifyChannel, c.logger)
	return feed.NewOrderFeed(listener, c.CreateListOrdersQueryHandler(), c.config.FeedRestartDelay,
		c.logger.WithField("component", "order_feed"))
}

func (c *CompositionRoot) CreateServer() *http.Server {
	createOrder := c.CreateCreateOrderCommandHandler()
	updateStatus := c.CreateUpdateOrderStatusCommandHandler()
	retryingUpdateStatus := c.CreateRetryingUpdateOrderStatusCommandHandler()

	server := http.NewServer(
		&createOrder,
		&updateStatus,
		&retryingUpdateStatus,
		c.CreateGetOrderQueryHandler(),
		c.CreateListOrdersQueryHandler(),
		c.CreateGetDailyOrdersQueryHandler(),
		c.CreateOrderFeed(),
		c.metrics.FeedSubscribers,
		c.logger.WithField("component", "http"),
	)
	server.SetLocation(c.location)
	return server
}

// CreateJobManager schedules the daily summary and, when publisher is not
// nil, the outbox relay.
func (c *CompositionRoot) CreateJobManager(publisher ports.EventPublisher) *jobs.JobManager {
	var relay *jobs.OutboxRelayJob
	if publisher != nil {
		relay = jobs.NewOutboxRelayJob(
			outboxrepo.NewGormOutboxRepository(c.gormDB),
			publisher,
			c.metrics,
			c.config.OutboxSchedule,
			c.logger,
		)
		relay.SetBatchSize(c.config.OutboxBatchSize)
	}

	summary := jobs.NewDailySummaryJob(
		c.CreateGetDailyOrdersQueryHandler(),
		c.config.DailySummarySchedule,
		c.location,
		c.logger,
	)

	return jobs.NewJobManager(relay, summary)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
