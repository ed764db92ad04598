// Package errs provides standardized error types for the restaurant order service.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: invalid arguments
//   - ObjectNotFoundError: the referenced object does not exist
//   - ObjectIsCorruptedError: a persisted object cannot be parsed back into the domain
//   - ObjectAlreadyExistsError: a generated identifier is already taken
//   - TransitionIsInvalidError: a state change is not allowed from the current state
//   - StoreIsUnavailableError, VersionIsInvalidError: transient storage failures and
//     optimistic concurrency conflicts, the only errors worth retrying
//   - RetriesAreExhaustedError: the last transient error after all attempts failed
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
//
// Callers classify errors with errors.Is against the sentinels, or errors.As
// against the struct types when they need the details (for example the From
// and To statuses of a rejected transition).
package errs
