package order

import (
	"fmt"
	"slices"
	"time"

	"restaurant/internal/pkg/errs"
)

// HistoryEntry records when an order first entered a status.
type HistoryEntry struct {
	Status Status
	At     time.Time
}

// StatusHistory is the append-only audit trail of an order's statuses.
//
// Invariants:
//   - the first entry is Pending
//   - every later entry is a legal transition from the one before it
//   - each status appears at most once
//   - timestamps never decrease
//
// The zero value is empty and only useful as a starting point for record.
type StatusHistory struct {
	entries []HistoryEntry
}

// RestoreStatusHistory rebuilds a history read back from storage, checking
// every invariant. Entries must be in chronological order.
func RestoreStatusHistory(entries []HistoryEntry) (StatusHistory, error) {
	var h StatusHistory
	for _, e := range entries {
		if err := h.record(e.Status, e.At); err != nil {
			return StatusHistory{}, err
		}
		if !h.entries[len(h.entries)-1].At.Equal(e.At) {
			return StatusHistory{}, errs.NewValueIsInvalidErrorWithCause(
				"status history",
				fmt.Errorf("entry %s at %s is earlier than the entry before it", e.Status, e.At.Format(time.RFC3339Nano)),
			)
		}
	}
	return h, nil
}

// Entries returns a copy of the entries in chronological order.
func (h StatusHistory) Entries() []HistoryEntry {
	return slices.Clone(h.entries)
}

// Len returns the number of recorded statuses.
func (h StatusHistory) Len() int {
	return len(h.entries)
}

// At returns the time the order first entered status.
func (h StatusHistory) At(status Status) (time.Time, bool) {
	for _, e := range h.entries {
		if e.Status == status {
			return e.At, true
		}
	}
	return time.Time{}, false
}

// Has reports whether the order ever held status.
func (h StatusHistory) Has(status Status) bool {
	_, ok := h.At(status)
	return ok
}

// Last returns the most recent entry.
func (h StatusHistory) Last() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// record appends status entered at the given time. A timestamp earlier than
// the last entry (clock skew between writers) is raised to the last entry's
// timestamp so the trail stays ordered.
func (h *StatusHistory) record(status Status, at time.Time) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if at.IsZero() {
		return errs.NewValueIsRequiredError("status history timestamp")
	}
	if h.Has(status) {
		return errs.NewValueIsInvalidErrorWithCause(
			"status history", fmt.Errorf("%s is already recorded", status))
	}

	last, ok := h.Last()
	switch {
	case !ok && status != Pending:
		return errs.NewValueIsInvalidErrorWithCause(
			"status history", fmt.Errorf("must start with %s, got %s", Pending, status))
	case ok && !last.Status.CanTransitionTo(status):
		return errs.NewTransitionIsInvalidError("status history", last.Status.String(), status.String())
	case ok && at.Before(last.At):
		at = last.At
	}

	h.entries = append(h.entries, HistoryEntry{Status: status, At: at})
	return nil
}
