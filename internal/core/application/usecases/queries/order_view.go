// Package queries contains read operations over orders.
// Implements the Query side of CQRS: handlers read straight from the database
// into read models and never go through aggregates or transactions.
package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"restaurant/internal/adapters/out/postgres/pgerrs"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"gorm.io/gorm"
)

// OrderView is the read model of an order shown to operators and customers.
type OrderView struct {
	ID                    kernel.OrderID
	Status                order.Status
	Customer              CustomerView
	Items                 []ItemView
	Total                 int64
	PreferredDeliveryTime string
	StatusHistory         []StatusHistoryView
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// DisplayID returns the identifier as printed on receipts, e.g. "#4821093".
func (v OrderView) DisplayID() string {
	return v.ID.Display()
}

type CustomerView struct {
	Name      string
	Phone     string
	Latitude  float64
	Longitude float64
}

type ItemView struct {
	ID        string
	Name      string
	UnitPrice int64
	Quantity  int
	Extras    []ExtraView
}

// ExtraView is either a bare label or a priced extra with an ID.
type ExtraView struct {
	Label string `json:"label,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Price int64  `json:"price,omitempty"`
}

type StatusHistoryView struct {
	Status    order.Status
	EnteredAt time.Time
}

// orderViewRow is one row of orderViewSelect. Items and history are
// aggregated into JSON by Postgres to keep each read to a single statement.
type orderViewRow struct {
	ID                    string
	Status                string
	CustomerName          string
	CustomerPhone         string
	CustomerLatitude      float64
	CustomerLongitude     float64
	Total                 int64
	PreferredDeliveryTime string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Items                 []byte
	History               []byte
}

type itemRow struct {
	ItemID    string      `json:"itemId"`
	Name      string      `json:"name"`
	UnitPrice int64       `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
	Extras    []ExtraView `json:"extras"`
}

type historyRow struct {
	Status    string    `json:"status"`
	EnteredAt time.Time `json:"enteredAt"`
}

const orderViewSelect = `
	SELECT
		o.id,
		o.status,
		o.customer_name,
		o.customer_phone,
		o.customer_latitude,
		o.customer_longitude,
		o.total,
		o.preferred_delivery_time,
		o.created_at,
		o.updated_at,
		COALESCE((
			SELECT json_agg(json_build_object(
				'itemId', i.item_id,
				'name', i.name,
				'unitPrice', i.unit_price,
				'quantity', i.quantity,
				'extras', i.extras
			) ORDER BY i.position)
			FROM order_items i
			WHERE i.order_id = o.id
		), '[]') AS items,
		COALESCE((
			SELECT json_agg(json_build_object(
				'status', h.status,
				'enteredAt', h.entered_at
			) ORDER BY h.entered_at, h.id)
			FROM order_status_history h
			WHERE h.order_id = o.id
		), '[]') AS history
	FROM orders o
`

// searchClause matches the order ID, the customer name or any item name.
const searchClause = `(
	o.id ILIKE ? ESCAPE '\'
	OR o.customer_name ILIKE ? ESCAPE '\'
	OR EXISTS (SELECT 1 FROM order_items si WHERE si.order_id = o.id AND si.name ILIKE ? ESCAPE '\')
)`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// loadOrderViews runs orderViewSelect with the given filter and parses every row.
// A row that cannot be parsed fails the whole read with errs.ObjectIsCorruptedError;
// transient store failures are reported as errs.StoreIsUnavailableError.
func loadOrderViews(ctx context.Context, db *gorm.DB, filter string, args ...any) ([]OrderView, error) {
	var rows []orderViewRow
	if err := db.WithContext(ctx).Raw(orderViewSelect+filter, args...).Scan(&rows).Error; err != nil {
		return nil, pgerrs.Classify("select orders", err)
	}

	views := make([]OrderView, 0, len(rows))
	for _, row := range rows {
		view, err := row.toView()
		if err != nil {
			return nil, errs.NewObjectIsCorruptedErrorWithCause("order", row.ID, err)
		}
		views = append(views, view)
	}

	return views, nil
}

func (r orderViewRow) toView() (OrderView, error) {
	id, err := kernel.OrderIDFromString(r.ID)
	if err != nil {
		return OrderView{}, err
	}

	status, err := order.ParseStatus(r.Status)
	if err != nil {
		return OrderView{}, err
	}

	var items []itemRow
	if err = json.Unmarshal(r.Items, &items); err != nil {
		return OrderView{}, fmt.Errorf("items: %w", err)
	}

	var history []historyRow
	if err = json.Unmarshal(r.History, &history); err != nil {
		return OrderView{}, fmt.Errorf("status history: %w", err)
	}

	view := OrderView{
		ID:     id,
		Status: status,
		Customer: CustomerView{
			Name:      r.CustomerName,
			Phone:     r.CustomerPhone,
			Latitude:  r.CustomerLatitude,
			Longitude: r.CustomerLongitude,
		},
		Items:                 make([]ItemView, 0, len(items)),
		Total:                 r.Total,
		PreferredDeliveryTime: r.PreferredDeliveryTime,
		StatusHistory:         make([]StatusHistoryView, 0, len(history)),
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}

	for _, item := range items {
		view.Items = append(view.Items, ItemView{
			ID:        item.ItemID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Extras:    item.Extras,
		})
	}

	for _, entry := range history {
		entryStatus, parseErr := order.ParseStatus(entry.Status)
		if parseErr != nil {
			return OrderView{}, parseErr
		}
		view.StatusHistory = append(view.StatusHistory, StatusHistoryView{
			Status:    entryStatus,
			EnteredAt: entry.EnteredAt,
		})
	}

	return view, nil
}
