// Package order provides domain entities and business logic for restaurant
// order management. It implements the Order aggregate root with its status
// lifecycle, the audit trail of status changes and the events published when
// an order is placed or moves along its lifecycle.
//
// The package includes:
//   - Order: The aggregate root that manages order identity, contents and lifecycle
//   - Status: A state machine that enforces valid order status transitions
//   - StatusHistory: The ordered record of when each status was entered
//   - Customer, Item, Extra: Value objects describing who ordered what
//   - CreatedEvent, StatusChangedEvent: Domain events stored in the outbox
//
// Key business rules:
//   - Orders are identified by a 7-digit kernel.OrderID
//   - Orders contain at least one item and a non-negative total
//   - Order status follows the workflow Pending -> Processing -> Completed,
//     and Pending or Processing orders may be Cancelled
//   - Completed and Cancelled orders never change again
//   - Each status appears at most once in the history
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
