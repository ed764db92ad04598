package queries

import (
	"errors"
	"strings"

	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/guard"
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery lists orders, newest first, optionally restricted to one
// status and to orders matching a free-text search.
//
// Example:
//
//	query, err := NewListOrdersQuery("pending", "awa")
//	views, err := NewListOrdersQueryHandler(db).Handle(ctx, query)
type ListOrdersQuery struct {
	status order.Status
	search string
	guard  guard.ConstructorGuard
}

// NewListOrdersQuery parses an optional status name. An empty status lists
// every order; an unknown one fails with errs.ValueIsInvalidError.
func NewListOrdersQuery(status, search string) (ListOrdersQuery, error) {
	query := ListOrdersQuery{
		search: strings.TrimSpace(search),
		guard:  guard.NewConstructorGuard(),
	}

	if strings.TrimSpace(status) != "" {
		parsed, err := order.ParseStatus(status)
		if err != nil {
			return ListOrdersQuery{}, err
		}
		query.status = parsed
	}

	return query, nil
}

// Validate ensures the query was created through the constructor.
func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

// Status returns the filter, or (order.Unknown, false) when every status is listed.
func (q ListOrdersQuery) Status() (order.Status, bool) {
	return q.status, q.status != order.Unknown
}

func (q ListOrdersQuery) Search() string {
	return q.search
}
