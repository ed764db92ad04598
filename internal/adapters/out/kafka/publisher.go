// Package kafka publishes outbox messages to Kafka with a sarama SyncProducer.
// Each event name is its own topic and the order ID is the message key, so
// all events of one order land on the same partition in commit order.
package kafka

import (
	"context"
	"time"

	"restaurant/internal/core/ports"

	"github.com/IBM/sarama"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Header keys set on every published message.
const (
	HeaderEventID   = "event-id"
	HeaderEventName = "event-name"
)

// Publisher implements ports.EventPublisher.
type Publisher struct {
	producer    sarama.SyncProducer
	topicPrefix string
	logger      logrus.FieldLogger
}

// NewPublisher connects a synchronous producer to brokers. Topics are the
// event names prefixed with topicPrefix.
func NewPublisher(brokers []string, topicPrefix string, logger logrus.FieldLogger) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create kafka producer")
	}

	return NewPublisherWithProducer(producer, topicPrefix, logger), nil
}

// NewPublisherWithProducer wraps an existing producer.
func NewPublisherWithProducer(producer sarama.SyncProducer, topicPrefix string, logger logrus.FieldLogger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{
		producer:    producer,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// Publish sends one message and waits for the broker acknowledgement.
func (p *Publisher) Publish(ctx context.Context, message ports.OutboxMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	topic := p.topicPrefix + message.Name
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(message.AggregateID),
		Value: sarama.ByteEncoder(message.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventID), Value: []byte(message.ID.String())},
			{Key: []byte(HeaderEventName), Value: []byte(message.Name)},
		},
		Timestamp: message.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithField("topic", topic).Error("failed to send message to kafka")
		return pkgerrors.Wrapf(err, "publish %s %s", message.Name, message.ID)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"order_id":  message.AggregateID,
		"lag":       time.Since(message.OccurredAt).Round(time.Millisecond).String(),
	}).Debug("event published to kafka")

	return nil
}

// Close flushes and closes the producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
