// Package guard provides a marker that lets value objects, commands and queries
// detect whether they were built through their constructor.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by ConstructorGuard.Validate when the
// caller passes a nil error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded into structs whose zero value is not a valid
// instance. Constructors set it with NewConstructorGuard; Validate methods
// check it before any other rule.
//
// Example:
//
//	var ErrCustomerNotConstructed = errors.New("Customer must be created via NewCustomer")
//
//	type Customer struct {
//	    name  string
//	    guard guard.ConstructorGuard
//	}
//
//	func (c Customer) Validate() error {
//	    return c.guard.Validate(ErrCustomerNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marking its owner as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is
// nil) if the owner was not created through its constructor.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
