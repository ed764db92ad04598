// Package pgnotify turns PostgreSQL LISTEN/NOTIFY messages on the orders
// channel into change signals for the live order feed.
package pgnotify

import (
	"context"
	"time"

	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultMinReconnectInterval = 100 * time.Millisecond
	defaultMaxReconnectInterval = 10 * time.Second
	defaultPingInterval         = 90 * time.Second
)

// Listener implements ports.OrderChangeNotifier with lib/pq's Listener.
// Every subscription owns a dedicated connection that is closed when the
// subscription's context is done.
type Listener struct {
	dsn          string
	channel      string
	pingInterval time.Duration
	logger       logrus.FieldLogger
}

// NewListener creates a notifier listening on channel. dsn must be a lib/pq
// connection string.
func NewListener(dsn, channel string, logger logrus.FieldLogger) *Listener {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Listener{
		dsn:          dsn,
		channel:      channel,
		pingInterval: defaultPingInterval,
		logger:       logger.WithField("channel", channel),
	}
}

// Notifications starts listening and returns a channel with capacity one:
// bursts of notifications collapse into a single pending signal. A signal is
// also sent after the connection has been re-established, since
// notifications may have been lost while it was down.
func (l *Listener) Notifications(ctx context.Context) (<-chan struct{}, error) {
	listener := pq.NewListener(l.dsn, defaultMinReconnectInterval, defaultMaxReconnectInterval, l.onEvent)
	if err := listener.Listen(l.channel); err != nil {
		_ = listener.Close()
		return nil, pkgerrors.Wrapf(err, "listen on %s", l.channel)
	}

	out := make(chan struct{}, 1)
	go l.forward(ctx, listener, out)
	return out, nil
}

func (l *Listener) forward(ctx context.Context, listener *pq.Listener, out chan<- struct{}) {
	defer close(out)
	defer func() {
		if err := listener.Close(); err != nil {
			l.logger.WithError(err).Debug("close listener")
		}
	}()

	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-listener.Notify:
			if !ok {
				return
			}
			// A nil notification follows a reconnect.
			select {
			case out <- struct{}{}:
			default:
			}
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.logger.WithError(err).Warn("listener ping failed")
				}
			}()
		}
	}
}

func (l *Listener) onEvent(event pq.ListenerEventType, err error) {
	switch event {
	case pq.ListenerEventConnected:
		l.logger.Debug("listener connected")
	case pq.ListenerEventDisconnected:
		l.logger.WithError(err).Warn("listener disconnected")
	case pq.ListenerEventReconnected:
		l.logger.Info("listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.WithError(err).Warn("listener connection attempt failed")
	}
}
