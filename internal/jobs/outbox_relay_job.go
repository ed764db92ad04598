package jobs

import (
	"context"
	"time"

	"restaurant/internal/core/ports"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultOutboxBatchSize is the number of messages relayed per run.
const DefaultOutboxBatchSize = 100

// OutboxRecorder observes relayed messages for metrics.
type OutboxRecorder interface {
	OutboxMessageHandled(ok bool)
}

// OutboxRelayJob publishes stored domain events. Messages are sent oldest
// first; a failed publish ends the run so later events of the same order are
// never delivered before it. Delivery is at least once.
type OutboxRelayJob struct {
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	recorder  OutboxRecorder
	batchSize int
	schedule  string
	now       func() time.Time
	cron      *cron.Cron
	logger    logrus.FieldLogger
}

// NewOutboxRelayJob creates the relay. schedule is a six-field cron
// expression (with seconds).
func NewOutboxRelayJob(
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	recorder OutboxRecorder,
	schedule string,
	logger logrus.FieldLogger,
) *OutboxRelayJob {
	return &OutboxRelayJob{
		outbox:    outbox,
		publisher: publisher,
		recorder:  recorder,
		batchSize: DefaultOutboxBatchSize,
		schedule:  schedule,
		now:       time.Now,
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger.WithField("component", "outbox_relay_job"),
	}
}

// SetBatchSize changes the number of messages relayed per run. Non-positive
// values are ignored.
func (j *OutboxRelayJob) SetBatchSize(size int) {
	if size > 0 {
		j.batchSize = size
	}
}

// Start schedules the relay.
func (j *OutboxRelayJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.logger.WithError(err).Error("outbox relay failed")
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("outbox relay job started")
	return nil
}

// Stop stops scheduling and waits for a running relay to finish.
func (j *OutboxRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("outbox relay job stopped")
}

// RunOnce relays one batch and returns the number of published messages.
func (j *OutboxRelayJob) RunOnce(ctx context.Context) (int, error) {
	messages, err := j.outbox.GetUnprocessed(ctx, j.batchSize)
	if err != nil {
		return 0, err
	}

	published := make([]uuid.UUID, 0, len(messages))
	var publishErr error
	for _, message := range messages {
		if publishErr = j.publisher.Publish(ctx, message); publishErr != nil {
			j.record(false)
			j.logger.WithError(publishErr).WithFields(logrus.Fields{
				"event_id": message.ID.String(),
				"event":    message.Name,
				"order_id": message.AggregateID,
			}).Warn("outbox message not published, will retry")
			break
		}
		j.record(true)
		published = append(published, message.ID)
	}

	if len(published) > 0 {
		if err = j.outbox.MarkProcessed(ctx, j.now(), published...); err != nil {
			return 0, err
		}
	}

	return len(published), publishErr
}

func (j *OutboxRelayJob) record(ok bool) {
	if j.recorder != nil {
		j.recorder.OutboxMessageHandled(ok)
	}
}
