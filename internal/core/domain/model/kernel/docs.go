// Package kernel provides core domain primitives for the restaurant order service.
//
// The package includes:
//   - OrderID: the 7-digit, leading-zero-free order identifier and its generators
//   - Location: the customer's delivery point as latitude/longitude
//
// These primitives enforce domain invariants and validation rules, ensuring that
// domain objects are always in a valid state. They are immutable and safe for
// concurrent use.
package kernel
