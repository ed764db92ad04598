package commands

import (
	"context"
	"errors"
	"time"

	"restaurant/internal/pkg/errs"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultStatusUpdateMaxAttempts is the number of transaction attempts,
	// including the first one.
	DefaultStatusUpdateMaxAttempts = 3

	// DefaultStatusUpdateBaseDelay is multiplied by the attempt number to get
	// the pause after a failed attempt.
	DefaultStatusUpdateBaseDelay = time.Second
)

// SleepFunc pauses for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when interrupted.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the SleepFunc used outside of tests.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy configures RetryingUpdateOrderStatusCommandHandler.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy returns 3 attempts with 1s, 2s pauses between them.
// An update that fails transiently three times and would succeed on a fourth
// try ends in errs.RetriesAreExhaustedError; callers that need that fourth
// attempt set MaxAttempts to 4 (STATUS_UPDATE_MAX_ATTEMPTS=4 for the service).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultStatusUpdateMaxAttempts,
		BaseDelay:   DefaultStatusUpdateBaseDelay,
	}
}

// RetryingUpdateOrderStatusCommandHandler runs the whole transactional update
// (read, validate, write) again when it fails transiently. It is meant for
// call sites where several operators change the same orders at once.
//
// Only errors for which errs.IsTransient reports true are retried. After
// attempt n fails the handler waits n × BaseDelay. When the attempts run out
// it returns errs.RetriesAreExhaustedError wrapping the last error. Semantic
// failures such as not found or an invalid transition are returned at once.
//
// Example:
//
//	single := NewUpdateOrderStatusCommandHandler(uowFactory, time.Now, nil)
//	handler := NewRetryingUpdateOrderStatusCommandHandler(&single, DefaultRetryPolicy(), SleepContext, nil, logger)
//	err := handler.Handle(ctx, cmd)
type RetryingUpdateOrderStatusCommandHandler struct {
	next     UpdateOrderStatusHandler
	policy   RetryPolicy
	sleep    SleepFunc
	recorder StatusUpdateRecorder
	logger   logrus.FieldLogger
}

// NewRetryingUpdateOrderStatusCommandHandler wraps next with the retry policy.
// Non-positive policy values fall back to the defaults; nil sleep, recorder
// and logger fall back to SleepContext, no metrics and the standard logger.
func NewRetryingUpdateOrderStatusCommandHandler(
	next UpdateOrderStatusHandler,
	policy RetryPolicy,
	sleep SleepFunc,
	recorder StatusUpdateRecorder,
	logger logrus.FieldLogger,
) RetryingUpdateOrderStatusCommandHandler {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultStatusUpdateMaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultStatusUpdateBaseDelay
	}
	if sleep == nil {
		sleep = SleepContext
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return RetryingUpdateOrderStatusCommandHandler{
		next:     next,
		policy:   policy,
		sleep:    sleep,
		recorder: recorder,
		logger:   logger,
	}
}

// Handle processes the status update command with retries.
func (h *RetryingUpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		err := h.next.Handle(ctx, cmd)
		if err == nil {
			return nil
		}
		if !errs.IsTransient(err) {
			return err
		}

		h.recorder.AttemptFailed(attempt, err)
		log := h.logger.WithFields(logrus.Fields{
			"order_id": cmd.OrderID().String(),
			"status":   cmd.Status().String(),
			"attempt":  attempt,
		}).WithError(err)

		if attempt >= h.policy.MaxAttempts {
			log.Warn("order status update retries exhausted")
			return errs.NewRetriesAreExhaustedError("update order "+cmd.OrderID().String()+" status", attempt, err)
		}

		delay := time.Duration(attempt) * h.policy.BaseDelay
		log.WithField("delay", delay.String()).Info("retrying order status update")

		if sleepErr := h.sleep(ctx, delay); sleepErr != nil {
			return errors.Join(sleepErr, err)
		}
	}
}
