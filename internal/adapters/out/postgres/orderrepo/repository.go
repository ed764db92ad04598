package orderrepo

import (
	"context"
	"errors"

	"restaurant/internal/adapters/out/postgres/pgerrs"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.OrderID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order with its items and history. A taken identifier is
// reported as errs.ObjectAlreadyExistsError.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerrs.IsUniqueViolation(err) {
			return errs.NewObjectAlreadyExistsErrorWithCause("order", dto.ID, err)
		}
		return pgerrs.Classify("insert order "+dto.ID, err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// UpdateStatus writes status, updated_at and the new history entries. The
// update only applies if the stored version is still the one the aggregate
// was loaded with; the version is then incremented.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	id := aggregate.ID().String()
	db := r.db.WithContext(ctx)

	result := db.Model(&OrderDTO{}).
		Where("id = ? AND version = ?", id, aggregate.Version()).
		Updates(map[string]any{
			"status":     aggregate.Status().String(),
			"updated_at": aggregate.UpdatedAt(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return pgerrs.Classify("update order "+id, result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewVersionIsInvalidError("order " + id)
	}

	history := historyDTOs(id, aggregate.History().Entries())
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&history).Error
	if err != nil {
		return pgerrs.Classify("insert status history of order "+id, err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	return r.load(ctx, r.db.WithContext(ctx), id)
}

// GetForUpdate retrieves an order by ID and locks its row with SELECT ... FOR UPDATE.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	return r.load(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

// Exists reports whether an order with the identifier is stored.
func (r *GormOrderRepository) Exists(ctx context.Context, id kernel.OrderID) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, err
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id.String()).Count(&count).Error
	if err != nil {
		return false, pgerrs.Classify("check order "+id.String(), err)
	}

	return count > 0, nil
}

func (r *GormOrderRepository) load(ctx context.Context, db *gorm.DB, id kernel.OrderID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.WithContext(ctx).Order("position") }).
		Preload("History", func(tx *gorm.DB) *gorm.DB { return tx.WithContext(ctx).Order("entered_at, id") }).
		First(&dto, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, pgerrs.Classify("select order "+id.String(), err)
	}

	aggregate, err := toDomain(dto)
	if err != nil {
		return nil, errs.NewObjectIsCorruptedErrorWithCause("order", id.String(), err)
	}

	return aggregate, nil
}
