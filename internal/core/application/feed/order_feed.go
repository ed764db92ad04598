// Package feed streams full snapshots of the order list to live dashboards.
//
// A subscription produces a new snapshot every time the store reports a
// change. Snapshots are complete lists, never diffs. Failures are delivered
// as snapshots carrying Err instead of ending the stream; when the change
// notifications stop (for instance after a lost connection) the subscription
// starts listening again and sends a fresh snapshot.
//
// Usage:
//
//	sub := orderFeed.Subscribe(ctx, query)
//	defer sub.Close()
//	for snapshot := range sub.Snapshots() {
//	    if snapshot.Err != nil {
//	        log.WithError(snapshot.Err).Warn("order feed")
//	        continue
//	    }
//	    render(snapshot.Orders)
//	}
package feed

import (
	"context"
	"sync"
	"time"

	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/ports"

	"github.com/sirupsen/logrus"
)

// DefaultRestartDelay is the pause before listening again after the
// notifier failed or stopped.
const DefaultRestartDelay = time.Second

// SnapshotLoader reads the current order list.
type SnapshotLoader interface {
	Handle(ctx context.Context, query queries.ListOrdersQuery) ([]queries.OrderView, error)
}

// Snapshot is one full view of the orders matching a subscription.
type Snapshot struct {
	Orders []queries.OrderView
	Err    error
}

// OrderFeed creates subscriptions.
type OrderFeed struct {
	notifier     ports.OrderChangeNotifier
	loader       SnapshotLoader
	restartDelay time.Duration
	logger       logrus.FieldLogger
}

// NewOrderFeed creates a feed. A non-positive restartDelay uses DefaultRestartDelay.
func NewOrderFeed(
	notifier ports.OrderChangeNotifier,
	loader SnapshotLoader,
	restartDelay time.Duration,
	logger logrus.FieldLogger,
) *OrderFeed {
	if restartDelay <= 0 {
		restartDelay = DefaultRestartDelay
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OrderFeed{
		notifier:     notifier,
		loader:       loader,
		restartDelay: restartDelay,
		logger:       logger,
	}
}

// Subscribe starts streaming snapshots of the orders matching query. The
// stream ends when ctx is done or Close is called.
func (f *OrderFeed) Subscribe(ctx context.Context, query queries.ListOrdersQuery) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		snapshots: make(chan Snapshot),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer close(sub.snapshots)
		f.run(ctx, query, sub.snapshots)
	}()

	return sub
}

func (f *OrderFeed) run(ctx context.Context, query queries.ListOrdersQuery, out chan<- Snapshot) {
	for {
		notifications, err := f.notifier.Notifications(ctx)
		if err != nil {
			f.logger.WithError(err).Warn("order feed cannot listen for changes")
			if !send(ctx, out, Snapshot{Err: err}) || !wait(ctx, f.restartDelay) {
				return
			}
			continue
		}

		if !send(ctx, out, f.load(ctx, query)) {
			return
		}
		for range notifications {
			if !send(ctx, out, f.load(ctx, query)) {
				return
			}
		}

		if ctx.Err() != nil {
			return
		}
		f.logger.Info("order change notifications stopped, listening again")
		if !wait(ctx, f.restartDelay) {
			return
		}
	}
}

func (f *OrderFeed) load(ctx context.Context, query queries.ListOrdersQuery) Snapshot {
	orders, err := f.loader.Handle(ctx, query)
	if err != nil {
		return Snapshot{Err: err}
	}
	return Snapshot{Orders: orders}
}

func send(ctx context.Context, out chan<- Snapshot, snapshot Snapshot) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- snapshot:
		return true
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Subscription is a live stream of snapshots.
type Subscription struct {
	snapshots chan Snapshot
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Snapshots returns the stream. It is closed after Close or when the
// subscribing context is done.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Close stops delivery and waits until the underlying listener is released.
// It is safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.cancel)
	<-s.done
}
