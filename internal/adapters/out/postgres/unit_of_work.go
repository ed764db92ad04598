// Package postgres provides a GORM-based implementation of the Unit of Work
// pattern for the order store.
//
// A unit of work wraps one database transaction. Repositories obtained from it
// run inside that transaction and register every aggregate they write. On
// Commit the pending domain events of those aggregates are written to the
// outbox table in the same transaction, so an event is stored if and only if
// the change that raised it is.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	repo := uow.OrderRepository()
//	aggregate, err := repo.GetForUpdate(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if err := aggregate.ChangeStatus(order.StatusProcessing, time.Now()); err != nil {
//	    return err
//	}
//	if err := repo.UpdateStatus(ctx, aggregate); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
//
// Each UnitOfWork instance is meant for one goroutine and one business
// operation; concurrent operations create their own instances.
package postgres

import (
	"context"

	"restaurant/internal/adapters/out/postgres/orderrepo"
	"restaurant/internal/adapters/out/postgres/outboxrepo"
	"restaurant/internal/adapters/out/postgres/pgerrs"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate represents an aggregate modified during the unit of work.
type trackedAggregate struct {
	ID        kernel.OrderID
	Aggregate any
}

// eventSource is implemented by aggregates that raise domain events.
type eventSource interface {
	DomainEvents() []order.DomainEvent
	ClearDomainEvents()
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    return err
//	}
//	factory := NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork instance with no open transaction.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one database transaction and the aggregates
// written in it.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []trackedAggregate
}

// Begin starts the transaction. Calling it again while a transaction is open
// does nothing.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return pgerrs.Classify("begin transaction", tx.Error)
	}

	uow.tx = tx
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return nil
}

// Commit writes the pending events of every tracked aggregate to the outbox
// and commits. The events are cleared from the aggregates only once the
// commit succeeds.
//
// Returns gorm.ErrInvalidTransaction if Begin was not called. If writing the
// outbox fails the transaction stays open so the caller can roll it back.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	var events []order.DomainEvent
	for _, tracked := range uow.trackedAggregates {
		if source, ok := tracked.Aggregate.(eventSource); ok {
			events = append(events, source.DomainEvents()...)
		}
	}

	if err := outboxrepo.NewGormOutboxRepository(uow.tx).AddEvents(ctx, events...); err != nil {
		return err
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		return pgerrs.Classify("commit transaction", err)
	}

	for _, tracked := range uow.trackedAggregates {
		if source, ok := tracked.Aggregate.(eventSource); ok {
			source.ClearDomainEvents()
		}
	}
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return nil
}

// Rollback discards the transaction. Returns gorm.ErrInvalidTransaction if
// none is open, which makes it safe to defer after a successful Commit.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// OrderRepository returns an order repository bound to the open transaction,
// or to the connection pool when no transaction is open.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	db := uow.db
	if uow.tx != nil {
		db = uow.tx
	}
	return orderrepo.NewGormOrderRepository(db, uow)
}

// TrackAggregate registers an aggregate written in this unit of work. Called
// by repositories; the same aggregate may be registered more than once.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.OrderID, aggregate any) {
	for _, tracked := range uow.trackedAggregates {
		if tracked.Aggregate == aggregate {
			return
		}
	}
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}
