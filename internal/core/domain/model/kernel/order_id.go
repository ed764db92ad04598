package kernel

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/guard"
)

// OrderIDLength is the number of digits in an order identifier.
const OrderIDLength = 7

var orderIDPattern = regexp.MustCompile(`^[1-9][0-9]{6}$`)

// ErrOrderIDIsNotConstructed indicates a zero-value OrderID.
var ErrOrderIDIsNotConstructed = errs.NewValueIsRequiredError(
	"order ID must be created via NewRandomOrderID, OrderIDFromString or an OrderIDGenerator")

// OrderID is the short, human-readable identifier of an order. It is used both
// as the code shown to customers and operators and as the storage key.
//
// An OrderID is always 7 decimal digits and never starts with 0, so it can be
// read aloud or typed without leading-zero confusion. Generation is not
// cryptographic and not globally unique: whoever persists a new order must
// check the identifier is free.
//
// Example:
//
//	id := kernel.NewRandomOrderID()
//	fmt.Println(id)           // 4821093
//	fmt.Println(id.Display()) // #4821093
type OrderID struct {
	value string
	guard guard.ConstructorGuard
}

// NewRandomOrderID draws a fresh identifier from the process-wide random source.
// Safe for concurrent use.
func NewRandomOrderID() OrderID {
	return newOrderID(rand.IntN)
}

// OrderIDFromString parses an identifier received from a client or read back
// from storage.
//
// Returns:
//   - ValueIsRequiredError if s is empty
//   - ValueIsInvalidError if s is not 7 digits with a non-zero first digit
func OrderIDFromString(s string) (OrderID, error) {
	if strings.TrimSpace(s) == "" {
		return OrderID{}, errs.NewValueIsRequiredError("orderID")
	}
	if !orderIDPattern.MatchString(s) {
		return OrderID{}, errs.NewValueIsInvalidErrorWithCause(
			"orderID",
			fmt.Errorf("%q is not %d digits without a leading zero", s, OrderIDLength),
		)
	}
	return OrderID{value: s, guard: guard.NewConstructorGuard()}, nil
}

// String returns the bare identifier, e.g. "4821093".
func (id OrderID) String() string {
	return id.value
}

// Display returns the identifier formatted for receipts and dashboards, e.g. "#4821093".
func (id OrderID) Display() string {
	return "#" + id.value
}

// IsEqual reports whether both identifiers hold the same digits.
func (id OrderID) IsEqual(other OrderID) bool {
	return id.value == other.value
}

// Validate returns ErrOrderIDIsNotConstructed for a zero value.
func (id OrderID) Validate() error {
	return id.guard.Validate(ErrOrderIDIsNotConstructed)
}

// newOrderID builds an identifier from intN, which must return a uniform
// integer in [0, n).
func newOrderID(intN func(n int) int) OrderID {
	var b strings.Builder
	b.Grow(OrderIDLength)
	b.WriteString(strconv.Itoa(1 + intN(9)))
	for range OrderIDLength - 1 {
		b.WriteString(strconv.Itoa(intN(10)))
	}
	return OrderID{value: b.String(), guard: guard.NewConstructorGuard()}
}

// OrderIDGenerator produces candidate order identifiers.
type OrderIDGenerator interface {
	Generate() OrderID
}

// RandomOrderIDGenerator generates identifiers from a math/rand/v2 source.
// The zero value uses the process-wide source.
type RandomOrderIDGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomOrderIDGenerator returns a generator backed by the process-wide source.
func NewRandomOrderIDGenerator() *RandomOrderIDGenerator {
	return &RandomOrderIDGenerator{}
}

// NewSeededOrderIDGenerator returns a generator with a deterministic PCG source.
// Two generators with the same seeds produce the same sequence.
func NewSeededOrderIDGenerator(seed1, seed2 uint64) *RandomOrderIDGenerator {
	return &RandomOrderIDGenerator{rnd: rand.New(rand.NewPCG(seed1, seed2))} //nolint:gosec // identifiers are not secrets
}

// Generate returns a new candidate identifier.
func (g *RandomOrderIDGenerator) Generate() OrderID {
	if g.rnd == nil {
		return NewRandomOrderID()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return newOrderID(g.rnd.IntN)
}
