package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/guard"
)

var (
	ErrItemIsNotConstructed  = errors.New("Item must be created via NewItem constructor")
	ErrExtraIsNotConstructed = errors.New("Extra must be created via NewLabelExtra or NewPricedExtra")
)

// Extra is an add-on selected for a line item. Older clients send a bare label
// ("extra cheese"); the extras catalogue produces structured extras with an
// identifier and a price in XOF.
type Extra struct { //nolint:recvcheck //using for validation
	label      string
	id         string
	name       string
	price      int64
	structured bool
	guard      guard.ConstructorGuard
}

// NewLabelExtra creates a free-form extra.
func NewLabelExtra(label string) (Extra, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Extra{}, errs.NewValueIsRequiredError("extra label")
	}
	return Extra{label: label, guard: guard.NewConstructorGuard()}, nil
}

// NewPricedExtra creates a structured extra from the catalogue.
func NewPricedExtra(id, name string, price int64) (Extra, error) {
	e := Extra{structured: true, guard: guard.NewConstructorGuard()}

	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	var err error
	if id == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("extra id"))
	}
	if name == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("extra name"))
	}
	if price < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause(
			"extra price", fmt.Errorf("%d is negative", price)))
	}
	if err != nil {
		return Extra{}, err
	}

	e.id, e.name, e.price = id, name, price
	return e, nil
}

func (e Extra) Validate() error {
	return e.guard.Validate(ErrExtraIsNotConstructed)
}

// IsStructured reports whether the extra carries an id and a price.
func (e Extra) IsStructured() bool {
	return e.structured
}

// Label returns the free-form text of a label extra, or the name of a structured one.
func (e Extra) Label() string {
	if e.structured {
		return e.name
	}
	return e.label
}

func (e Extra) ID() string {
	return e.id
}

func (e Extra) Name() string {
	return e.name
}

// Price is zero for label extras.
func (e Extra) Price() int64 {
	return e.price
}

// Item is one line of an order.
type Item struct { //nolint:recvcheck //using for validation
	id        string
	name      string
	unitPrice int64
	quantity  int
	extras    []Extra
	guard     guard.ConstructorGuard
}

// NewItem validates and creates a line item. Extras keep the order they were selected in.
func NewItem(id, name string, unitPrice int64, quantity int, extras []Extra) (Item, error) {
	item := Item{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		item.setID(id),
		item.setName(name),
		item.setUnitPrice(unitPrice),
		item.setQuantity(quantity),
		item.setExtras(extras),
	); err != nil {
		return Item{}, err
	}

	return item, nil
}

func (i Item) Validate() error {
	return i.guard.Validate(ErrItemIsNotConstructed)
}

func (i Item) ID() string {
	return i.id
}

func (i Item) Name() string {
	return i.name
}

func (i Item) UnitPrice() int64 {
	return i.unitPrice
}

func (i Item) Quantity() int {
	return i.quantity
}

func (i Item) Extras() []Extra {
	return slices.Clone(i.extras)
}

// Subtotal is (unit price + priced extras) × quantity.
func (i Item) Subtotal() int64 {
	unit := i.unitPrice
	for _, e := range i.extras {
		unit += e.Price()
	}
	return unit * int64(i.quantity)
}

func (i *Item) setID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.NewValueIsRequiredError("item id")
	}
	i.id = id
	return nil
}

func (i *Item) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("item name")
	}
	i.name = name
	return nil
}

func (i *Item) setUnitPrice(unitPrice int64) error {
	if unitPrice < 0 {
		return errs.NewValueIsInvalidErrorWithCause("item unit price", fmt.Errorf("%d is negative", unitPrice))
	}
	i.unitPrice = unitPrice
	return nil
}

func (i *Item) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("item quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	i.quantity = quantity
	return nil
}

func (i *Item) setExtras(extras []Extra) error {
	for idx, e := range extras {
		if err := e.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("item extra %d", idx), err)
		}
	}
	i.extras = slices.Clone(extras)
	return nil
}
