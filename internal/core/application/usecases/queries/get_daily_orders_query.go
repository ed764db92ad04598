package queries

import (
	"errors"
	"strings"
	"time"

	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/guard"
)

var ErrGetDailyOrdersQueryIsNotConstructed = errors.New(
	"GetDailyOrdersQuery must be created via NewGetDailyOrdersQuery constructor",
)

// GetDailyOrdersQuery selects the orders placed on one calendar day in the
// restaurant's time zone, for the daily tracking board.
type GetDailyOrdersQuery struct {
	from   time.Time
	to     time.Time
	search string
	guard  guard.ConstructorGuard
}

// NewGetDailyOrdersQuery builds the query for the calendar day containing day,
// evaluated in day's location.
func NewGetDailyOrdersQuery(day time.Time, search string) (GetDailyOrdersQuery, error) {
	if day.IsZero() {
		return GetDailyOrdersQuery{}, errs.NewValueIsRequiredError("day")
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return GetDailyOrdersQuery{
		from:   from,
		to:     from.AddDate(0, 0, 1),
		search: strings.TrimSpace(search),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetDailyOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetDailyOrdersQueryIsNotConstructed)
}

// Range returns the half-open interval [from, to) of the day.
func (q GetDailyOrdersQuery) Range() (time.Time, time.Time) {
	return q.from, q.to
}

func (q GetDailyOrdersQuery) Search() string {
	return q.search
}
