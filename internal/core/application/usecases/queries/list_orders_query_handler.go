package queries

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// ListOrdersQueryHandler reads the order list shown on the admin dashboard.
// It also produces the snapshots of the live order feed.
type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

// Handle returns matching orders ordered by creation time, newest first.
// An empty result is an empty, non-nil slice.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []any
	)
	if status, ok := query.Status(); ok {
		conditions = append(conditions, "o.status = ?")
		args = append(args, status.String())
	}
	if search := query.Search(); search != "" {
		pattern := containsPattern(search)
		conditions = append(conditions, searchClause)
		args = append(args, pattern, pattern, pattern)
	}

	filter := ""
	if len(conditions) > 0 {
		filter = "WHERE " + strings.Join(conditions, " AND ")
	}

	return loadOrderViews(ctx, h.db, filter+" ORDER BY o.created_at DESC, o.id", args...)
}
