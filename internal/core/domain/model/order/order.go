package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder. This ensures all orders are properly validated.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

	// ErrItemsAreRequired is returned when an order has no line items.
	ErrItemsAreRequired = errs.NewValueIsRequiredError("order must contain at least one item")
)

// Order represents a customer's delivery order. It is the aggregate root that
// manages the order lifecycle from placement through processing to completion
// or cancellation.
//
// Order follows these invariants:
//   - Must have a valid OrderID, which never changes
//   - Must have a customer with name, phone and location
//   - Must contain at least one item
//   - Total is a non-negative amount in XOF
//   - Status only changes along the transitions defined by Status
//   - The status history holds one entry per status ever held, in order
//   - Can only be created through NewOrder or RestoreOrder
type Order struct {
	// id is the 7-digit order identifier
	id kernel.OrderID

	// customer is the person the order is delivered to
	customer Customer

	// items are the ordered line items
	items []Item

	// total is the precomputed order total in XOF
	total int64

	// preferredDeliveryTime is a free-form hint shown to the kitchen
	preferredDeliveryTime string

	// status represents the current state in the order lifecycle
	status Status

	// history records when each status was first entered
	history StatusHistory

	createdAt time.Time
	updatedAt time.Time

	// version is the optimistic concurrency token read from storage
	version int64

	// events raised since the order was loaded or created
	events []DomainEvent

	// isConstructed ensures the order was created via a constructor
	isConstructed bool
}

// NewOrder places a new order in Pending status. The initial history entry,
// createdAt and updatedAt all carry the same timestamp.
//
// Parameters:
//   - id: Identifier produced by a kernel.OrderIDGenerator
//   - customer: Validated customer details
//   - items: At least one line item
//   - total: Order total in XOF (must not be negative)
//   - preferredDeliveryTime: Optional display string
//   - now: Creation time
//
// Returns:
//   - *Order: The created order if all validations pass
//   - error: All validation errors joined together
//
// Example:
//
//	loc, _ := kernel.NewLocation(14.69, -17.44)
//	customer, _ := order.NewCustomer("Awa", "+221770000000", loc)
//	item, _ := order.NewItem("dibi-1", "Dibi mouton", 6000, 1, nil)
//	o, err := order.NewOrder(kernel.NewRandomOrderID(), customer, []order.Item{item}, 6000, "", time.Now())
func NewOrder(
	id kernel.OrderID,
	customer Customer,
	items []Item,
	total int64,
	preferredDeliveryTime string,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomer(customer),
		o.setItems(items),
		o.setTotal(total),
		o.setTimestamps(now, now),
	); err != nil {
		return nil, err
	}
	o.preferredDeliveryTime = strings.TrimSpace(preferredDeliveryTime)

	if err := o.history.record(Pending, now); err != nil {
		return nil, err
	}

	o.raise(CreatedEvent{
		OrderID:      o.id,
		CustomerName: o.customer.Name(),
		Total:        o.total,
		ItemCount:    len(o.items),
		At:           now,
	})

	return o, nil
}

// State carries everything needed to rebuild an Order from storage.
type State struct {
	ID                    kernel.OrderID
	Customer              Customer
	Items                 []Item
	Total                 int64
	PreferredDeliveryTime string
	Status                Status
	History               []HistoryEntry
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int64
}

// RestoreOrder rebuilds an order read back from storage. It applies the same
// rules as NewOrder and additionally checks that the current status is valid
// and is the last status of the history.
//
// Repositories turn any error from RestoreOrder into an ObjectIsCorruptedError.
func RestoreOrder(state State) (*Order, error) {
	o := &Order{
		isConstructed: true,
		version:       state.Version,
	}

	history, historyErr := RestoreStatusHistory(state.History)

	if err := errors.Join(
		o.setID(state.ID),
		o.setCustomer(state.Customer),
		o.setItems(state.Items),
		o.setTotal(state.Total),
		o.setTimestamps(state.CreatedAt, state.UpdatedAt),
		state.Status.Validate(),
		historyErr,
	); err != nil {
		return nil, err
	}

	if last, ok := history.Last(); !ok || last.Status != state.Status {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"status history",
			fmt.Errorf("current status %s is not the last recorded status", state.Status),
		)
	}

	o.preferredDeliveryTime = strings.TrimSpace(state.PreferredDeliveryTime)
	o.status = state.Status
	o.history = history

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares two orders by their identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.OrderID {
	return o.id
}

func (o *Order) Customer() Customer {
	return o.customer
}

func (o *Order) Items() []Item {
	return slices.Clone(o.items)
}

// Total returns the precomputed order total in XOF.
func (o *Order) Total() int64 {
	return o.total
}

// ItemsTotal sums the item subtotals. It may differ from Total, which can
// include delivery fees.
func (o *Order) ItemsTotal() int64 {
	var sum int64
	for _, item := range o.items {
		sum += item.Subtotal()
	}
	return sum
}

func (o *Order) PreferredDeliveryTime() string {
	return o.preferredDeliveryTime
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) History() StatusHistory {
	return StatusHistory{entries: o.history.Entries()}
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// Version returns the optimistic concurrency token the order was loaded with.
func (o *Order) Version() int64 {
	return o.version
}

// DomainEvents returns the events raised since the order was created or loaded.
func (o *Order) DomainEvents() []DomainEvent {
	return slices.Clone(o.events)
}

// ClearDomainEvents drops raised events once they are stored for publishing.
func (o *Order) ClearDomainEvents() {
	o.events = nil
}

// ChangeStatus moves the order to target at the given time.
//
// This method enforces the following business rules:
//   - The move must be allowed by the status transition table
//   - The new status is appended to the history with the same timestamp as updatedAt
//
// Returns:
//   - nil on success
//   - TransitionIsInvalidError naming the current and requested status otherwise;
//     the order is left untouched
//
// Example:
//
//	if err := o.ChangeStatus(order.Processing, time.Now()); err != nil {
//	    var invalid *errs.TransitionIsInvalidError
//	    if errors.As(err, &invalid) {
//	        // invalid.From, invalid.To
//	    }
//	}
func (o *Order) ChangeStatus(target Status, at time.Time) error {
	if err := o.Validate(); err != nil {
		return err
	}

	if !o.status.CanTransitionTo(target) {
		return errs.NewTransitionIsInvalidError("order "+o.id.String(), o.status.String(), target.String())
	}

	history := StatusHistory{entries: o.history.Entries()}
	if err := history.record(target, at); err != nil {
		return err
	}
	entered, _ := history.Last()

	from := o.status
	o.status = target
	o.history = history
	o.updatedAt = entered.At

	o.raise(StatusChangedEvent{
		OrderID: o.id,
		From:    from,
		To:      target,
		At:      entered.At,
	})

	return nil
}

func (o *Order) raise(event DomainEvent) {
	o.events = append(o.events, event)
}

func (o *Order) setID(id kernel.OrderID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomer(customer Customer) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	o.customer = customer
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}
	for idx, item := range items {
		if err := item.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("item %d", idx), err)
		}
	}
	o.items = slices.Clone(items)
	return nil
}

func (o *Order) setTotal(total int64) error {
	if total < 0 {
		return errs.NewValueIsInvalidErrorWithCause("total", fmt.Errorf("%d is negative", total))
	}
	o.total = total
	return nil
}

func (o *Order) setTimestamps(createdAt, updatedAt time.Time) error {
	if createdAt.IsZero() {
		return errs.NewValueIsRequiredError("createdAt")
	}
	if updatedAt.Before(createdAt) {
		return errs.NewValueIsInvalidErrorWithCause(
			"updatedAt", fmt.Errorf("%s is before createdAt", updatedAt.Format(time.RFC3339Nano)))
	}
	o.createdAt = createdAt
	o.updatedAt = updatedAt
	return nil
}
