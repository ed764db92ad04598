package order

import (
	"errors"
	"strings"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/guard"
)

// ErrCustomerIsNotConstructed is returned by Customer.Validate for a zero value.
var ErrCustomerIsNotConstructed = errors.New("Customer must be created via NewCustomer constructor")

// Customer is the person an order is delivered to. All fields are required.
type Customer struct { //nolint:recvcheck //using for validation
	name     string
	phone    string
	location kernel.Location
	guard    guard.ConstructorGuard
}

// NewCustomer validates and creates a Customer. Name and phone are trimmed.
func NewCustomer(name, phone string, location kernel.Location) (Customer, error) {
	c := Customer{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		c.setName(name),
		c.setPhone(phone),
		c.setLocation(location),
	); err != nil {
		return Customer{}, err
	}

	return c, nil
}

func (c Customer) Validate() error {
	return c.guard.Validate(ErrCustomerIsNotConstructed)
}

func (c Customer) Name() string {
	return c.name
}

func (c Customer) Phone() string {
	return c.phone
}

func (c Customer) Location() kernel.Location {
	return c.location
}

func (c *Customer) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("customer name")
	}
	c.name = name
	return nil
}

func (c *Customer) setPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return errs.NewValueIsRequiredError("customer phone")
	}
	c.phone = phone
	return nil
}

func (c *Customer) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer location", err)
	}
	c.location = location
	return nil
}
