package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config is read from the environment. A .env file in the working directory,
// when present, is loaded first and never overrides variables already set.
type Config struct {
	HTTPPort   string `envconfig:"HTTP_PORT" default:"8080"`
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSslMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// KafkaHost is a comma separated broker list. Events stay in the outbox
	// when it is empty.
	KafkaHost        string `envconfig:"KAFKA_HOST"`
	KafkaTopicPrefix string `envconfig:"KAFKA_TOPIC_PREFIX" default:"restaurant."`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StatusUpdateMaxAttempts int           `envconfig:"STATUS_UPDATE_MAX_ATTEMPTS" default:"3"`
	StatusUpdateBaseDelay   time.Duration `envconfig:"STATUS_UPDATE_BASE_DELAY" default:"1s"`

	OutboxSchedule       string        `envconfig:"OUTBOX_SCHEDULE" default:"*/5 * * * * *"`
	OutboxBatchSize      int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	DailySummarySchedule string        `envconfig:"DAILY_SUMMARY_SCHEDULE" default:"0 0 23 * * *"`
	Timezone             string        `envconfig:"RESTAURANT_TIMEZONE" default:"Africa/Dakar"`
	FeedRestartDelay     time.Duration `envconfig:"FEED_RESTART_DELAY" default:"1s"`
}

// LoadConfig reads the configuration.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, pkgerrors.Wrap(err, "read configuration")
	}
	return config, nil
}

// DSN returns the key=value connection string used by gorm, golang-migrate
// and the lib/pq listener.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// KafkaBrokers splits KafkaHost.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaHost, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// Location resolves Timezone, the zone the daily board and summary use.
func (c Config) Location() (*time.Location, error) {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load timezone %q", c.Timezone)
	}
	return location, nil
}
