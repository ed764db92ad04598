package order

import (
	"fmt"
	"slices"
	"strings"

	"restaurant/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements a state machine with defined transitions to ensure
// orders follow the correct business workflow.
//
// State transitions:
//
//	Pending ──> Processing ──> Completed
//	   │            │
//	   └────────────┴──> Cancelled
//
// Completed and Cancelled are terminal. Reflexive transitions and transitions
// back into Pending are never allowed.
//
// Status is persisted and exchanged by name ("pending", "processing", ...),
// never by its numeric value.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values and
	// unrecognizable statuses read back from storage.
	Unknown Status = iota

	// Pending is the initial status when an order is first placed.
	Pending

	// Processing indicates the kitchen has accepted the order.
	Processing

	// Completed indicates the order has been delivered. Terminal.
	Completed

	// Cancelled indicates the order was abandoned before completion. Terminal.
	Cancelled
)

// getStatusStrings returns a map of Status values to their string representations.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Processing: "processing",
		Completed:  "completed",
		Cancelled:  "cancelled",
	}
}

// getValidStatusStrings returns a map of only valid Status values.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:    "pending",
		Processing: "processing",
		Completed:  "completed",
		Cancelled:  "cancelled",
	}
}

// getTransitions returns the legal transition table. A status missing from
// the table, or mapped to an empty list, has no outgoing transitions.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // Unknown has no transitions
	return map[Status][]Status{
		Pending:    {Processing, Cancelled},
		Processing: {Completed, Cancelled},
		Completed:  {},
		Cancelled:  {},
	}
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Processing, Completed, Cancelled}
}

// ParseStatus converts a status name into a Status.
// Matching ignores surrounding whitespace and letter case.
//
// Returns:
//   - ValueIsRequiredError if name is empty
//   - ValueIsInvalidError if name is not one of pending, processing, completed, cancelled
//
// Example:
//
//	status, err := order.ParseStatus("processing")
//	if err != nil {
//	    return err
//	}
func ParseStatus(name string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return Unknown, errs.NewValueIsRequiredError("status")
	}

	for status, str := range getValidStatusStrings() {
		if str == normalized {
			return status, nil
		}
	}

	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status",
		fmt.Errorf("%q is not one of pending, processing, completed, cancelled", name),
	)
}

// Validate checks if the Status value is valid.
//
// Returns:
//   - nil if the status is valid
//   - ValueIsInvalidError if the status is Unknown or out of range
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the persisted name of the status, "unknown" for invalid values.
// This method implements the fmt.Stringer interface.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s.Validate() == nil && len(getTransitions()[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s in one step.
func (s Status) AllowedTransitions() []Status {
	return slices.Clone(getTransitions()[s])
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(getTransitions()[s], target)
}

// Next returns the primary forward step offered to operators:
// Pending -> Processing and Processing -> Completed.
// Terminal and invalid statuses have no next step.
func (s Status) Next() (Status, bool) {
	//nolint:exhaustive // only non-terminal statuses advance
	switch s {
	case Pending:
		return Processing, true
	case Processing:
		return Completed, true
	default:
		return Unknown, false
	}
}

// TransitionTo validates the move from s to target.
//
// Valid transitions:
//   - Pending -> Processing, Pending -> Cancelled
//   - Processing -> Completed, Processing -> Cancelled
//
// Returns:
//   - (target, nil) on valid transition
//   - (Unknown, TransitionIsInvalidError) naming both statuses otherwise
//
// Example:
//
//	next, err := order.Completed.TransitionTo(order.Cancelled)
//	// err: transition is invalid: order status cannot change from "completed" to "cancelled"
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return Unknown, errs.NewTransitionIsInvalidError("order status", s.String(), target.String())
	}

	return target, nil
}
