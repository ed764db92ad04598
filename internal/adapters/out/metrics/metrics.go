// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "restaurant"

// Metrics holds every collector of the service. It implements
// commands.StatusUpdateRecorder.
type Metrics struct {
	Requests          *prometheus.CounterVec
	LatencyMS         *prometheus.HistogramVec
	StatusChanges     *prometheus.CounterVec
	StatusUpdateFails *prometheus.CounterVec
	OutboxPublished   *prometheus.CounterVec
	FeedSubscribers   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "status_changes_total",
		Help:      "Committed order status transitions.",
	}, []string{"from", "to"})
	updateFails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "status_update_failed_attempts_total",
		Help:      "Status update attempts that failed transiently, by attempt number and reason.",
	}, []string{"attempt", "reason"})
	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "messages_total",
		Help:      "Outbox messages handled by the relay, by result.",
	}, []string{"result"})
	feedSubscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "subscribers",
		Help:      "Open live order feed connections.",
	})

	registry.MustRegister(requests, latency, statusChanges, updateFails, outboxPublished, feedSubscribers)

	return &Metrics{
		Requests:          requests,
		LatencyMS:         latency,
		StatusChanges:     statusChanges,
		StatusUpdateFails: updateFails,
		OutboxPublished:   outboxPublished,
		FeedSubscribers:   feedSubscribers,
		gatherer:          registry,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(handler string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(float64(elapsed.Milliseconds()))
}

// StatusChanged counts a committed transition.
func (m *Metrics) StatusChanged(from, to order.Status) {
	m.StatusChanges.WithLabelValues(from.String(), to.String()).Inc()
}

// AttemptFailed counts a transiently failed status update attempt.
func (m *Metrics) AttemptFailed(attempt int, err error) {
	reason := "other"
	switch {
	case errors.Is(err, errs.ErrVersionIsInvalid):
		reason = "version_conflict"
	case errors.Is(err, errs.ErrStoreIsUnavailable):
		reason = "store_unavailable"
	}
	m.StatusUpdateFails.WithLabelValues(strconv.Itoa(attempt), reason).Inc()
}

// OutboxMessageHandled counts one relayed message. ok is false when
// publishing failed and the message stays in the outbox.
func (m *Metrics) OutboxMessageHandled(ok bool) {
	result := "published"
	if !ok {
		result = "failed"
	}
	m.OutboxPublished.WithLabelValues(result).Inc()
}
