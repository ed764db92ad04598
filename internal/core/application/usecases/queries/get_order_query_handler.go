package queries

import (
	"context"

	"restaurant/internal/pkg/errs"

	"gorm.io/gorm"
)

// GetOrderQueryHandler reads a single order.
//
// Example:
//
//	handler := NewGetOrderQueryHandler(db)
//	query, _ := NewGetOrderQuery("4821093")
//
//	view, err := handler.Handle(ctx, query)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // unknown order
//	}
type GetOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle returns errs.ObjectNotFoundError when the order does not exist and
// errs.ObjectIsCorruptedError when its stored data cannot be parsed.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	views, err := loadOrderViews(ctx, h.db, "WHERE o.id = ?", query.OrderID().String())
	if err != nil {
		return OrderView{}, err
	}
	if len(views) == 0 {
		return OrderView{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}

	return views[0], nil
}
