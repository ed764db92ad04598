package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant/cmd"
	httpin "restaurant/internal/adapters/in/http"
	"restaurant/internal/adapters/out/kafka"
	"restaurant/internal/adapters/out/metrics"
	"restaurant/internal/adapters/out/postgres/migrations"
	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/ports"

	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	root := &cobra.Command{
		Use:           "restaurant",
		Short:         "Restaurant order intake and status tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCommand(logger),
		migrateCommand(logger),
		orderCommand(logger),
	)

	if err := root.Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// setup loads the configuration and applies LOG_LEVEL.
func setup(logger *logrus.Logger) (cmd.Config, error) {
	config, err := cmd.LoadConfig()
	if err != nil {
		return cmd.Config{}, err
	}

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return cmd.Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	return config, nil
}

func openDatabase(config cmd.Config) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.Open(config.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func serveCommand(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and run the HTTP API with the background jobs",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			config, err := setup(logger)
			if err != nil {
				return err
			}
			return serve(command.Context(), config, logger)
		},
	}
}

func serve(ctx context.Context, config cmd.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := config.Location()
	if err != nil {
		return err
	}

	if err = migrations.Up(config.DSN()); err != nil {
		return err
	}

	db, err := openDatabase(config)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collected := metrics.New(registry)

	app := cmd.NewCompositionRoot(config, db, collected, location, logger)

	var publisher ports.EventPublisher
	if brokers := config.KafkaBrokers(); len(brokers) > 0 {
		kafkaPublisher, publisherErr := kafka.NewPublisher(brokers, config.KafkaTopicPrefix, logger)
		if publisherErr != nil {
			return publisherErr
		}
		defer func() {
			if closeErr := kafkaPublisher.Close(); closeErr != nil {
				logger.WithError(closeErr).Warn("failed to close kafka producer")
			}
		}()
		publisher = kafkaPublisher
	} else {
		logger.Warn("KAFKA_HOST is empty, events stay in the outbox")
	}

	jobManager := app.CreateJobManager(publisher)
	if err = jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	e, err := httpin.NewEcho(ctx, app.CreateServer(), httpin.Options{
		Metrics:  collected.Handler(),
		Observer: collected,
		Logger:   logger.WithField("component", "http"),
	})
	if err != nil {
		return err
	}
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.WARN)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("port", config.HTTPPort).Info("starting HTTP server")
		serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", config.HTTPPort))
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func migrateCommand(logger *logrus.Logger) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			config, err := setup(logger)
			if err != nil {
				return err
			}
			if err = migrations.Up(config.DSN()); err != nil {
				return err
			}
			return logVersion(config, logger)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			config, err := setup(logger)
			if err != nil {
				return err
			}
			if err = migrations.Down(config.DSN(), steps); err != nil {
				return err
			}
			return logVersion(config, logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to revert, 0 reverts all")

	migrate.AddCommand(up, down)
	return migrate
}

func logVersion(config cmd.Config, logger *logrus.Logger) error {
	version, dirty, err := migrations.Version(config.DSN())
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema version")
	return nil
}

func orderCommand(logger *logrus.Logger) *cobra.Command {
	order := &cobra.Command{
		Use:   "order",
		Short: "Operate on orders",
	}

	var retry bool
	setStatus := &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move an order to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, args []string) error {
			config, err := setup(logger)
			if err != nil {
				return err
			}
			return setOrderStatus(command.Context(), config, logger, args[0], args[1], retry)
		},
	}
	setStatus.Flags().BoolVar(&retry, "retry", false, "Retry the transaction on contention")

	order.AddCommand(setStatus)
	return order
}

func setOrderStatus(
	ctx context.Context,
	config cmd.Config,
	logger *logrus.Logger,
	orderID, status string,
	retry bool,
) error {
	cmdUpdate, err := commands.NewUpdateOrderStatusCommand(orderID, status)
	if err != nil {
		return err
	}

	location, err := config.Location()
	if err != nil {
		return err
	}
	db, err := openDatabase(config)
	if err != nil {
		return err
	}

	app := cmd.NewCompositionRoot(config, db, metrics.New(prometheus.NewRegistry()), location, logger)

	var handler commands.UpdateOrderStatusHandler
	if retry {
		retrying := app.CreateRetryingUpdateOrderStatusCommandHandler()
		handler = &retrying
	} else {
		single := app.CreateUpdateOrderStatusCommandHandler()
		handler = &single
	}

	if err = handler.Handle(ctx, cmdUpdate); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"order_id": orderID, "status": cmdUpdate.Status().String()}).
		Info("order status changed")
	return nil
}
