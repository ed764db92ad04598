package queries

import (
	"context"

	"restaurant/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// GetDailyOrdersQueryResponse holds the day's orders, newest first, with
// per-status counts and the revenue of completed orders.
type GetDailyOrdersQueryResponse struct {
	Orders  []OrderView
	Counts  map[order.Status]int
	Revenue int64
}

// GetDailyOrdersQueryHandler reads the daily tracking board.
type GetDailyOrdersQueryHandler struct {
	db *gorm.DB
}

func NewGetDailyOrdersQueryHandler(db *gorm.DB) GetDailyOrdersQueryHandler {
	return GetDailyOrdersQueryHandler{db: db}
}

// Handle returns the orders created within the query's day. Counts contain
// every valid status, zero included.
func (h GetDailyOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetDailyOrdersQuery,
) (GetDailyOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetDailyOrdersQueryResponse{}, err
	}

	from, to := query.Range()
	filter := "WHERE o.created_at >= ? AND o.created_at < ?"
	args := []any{from, to}
	if search := query.Search(); search != "" {
		pattern := containsPattern(search)
		filter += " AND " + searchClause
		args = append(args, pattern, pattern, pattern)
	}

	views, err := loadOrderViews(ctx, h.db, filter+" ORDER BY o.created_at DESC, o.id", args...)
	if err != nil {
		return GetDailyOrdersQueryResponse{}, err
	}

	response := GetDailyOrdersQueryResponse{
		Orders: views,
		Counts: make(map[order.Status]int, len(order.AllStatuses())),
	}
	for _, status := range order.AllStatuses() {
		response.Counts[status] = 0
	}
	for _, view := range views {
		response.Counts[view.Status]++
		if view.Status == order.Completed {
			response.Revenue += view.Total
		}
	}

	return response, nil
}
