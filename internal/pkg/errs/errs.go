package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrObjectNotFound      = errors.New("object not found")
	ErrValueIsInvalid      = errors.New("value is invalid")
	ErrValueIsOutOfRange   = errors.New("value is out of range")
	ErrValueIsRequired     = errors.New("value is required")
	ErrVersionIsInvalid    = errors.New("version is invalid")
	ErrObjectIsCorrupted   = errors.New("object is corrupted")
	ErrObjectAlreadyExists = errors.New("object already exists")
	ErrTransitionIsInvalid = errors.New("transition is invalid")
	ErrStoreIsUnavailable  = errors.New("store is unavailable")
	ErrRetriesAreExhausted = errors.New("retries are exhausted")
)

// sanitize flattens values that are echoed back into error messages so a
// multi-line input cannot break single-line log records.
func sanitize(v any) string {
	s := fmt.Sprintf("%v", v)
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}
	return fmt.Sprintf("%s (cause: %v)", msg, cause)
}

// ObjectNotFoundError reports that an object with the given identifier does not exist.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)",
			ErrObjectNotFound, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// ValueIsInvalidError reports a value that is present but not acceptable.
type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsInvalidError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName), e.Cause)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

// ValueIsOutOfRangeError reports a value outside of [Min..Max].
type ValueIsOutOfRangeError struct {
	ParamName string
	Value     any
	Min       any
	Max       any
	Cause     error
}

func NewValueIsOutOfRangeError(paramName string, value, minValue, maxValue any) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue}
}

func NewValueIsOutOfRangeErrorWithCause(
	paramName string,
	value, minValue, maxValue any,
	cause error,
) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue, Cause: cause}
}

func (e *ValueIsOutOfRangeError) Error() string {
	msg := fmt.Sprintf("%s: %s is %s, min value is %s, max value is %s",
		ErrValueIsInvalid, sanitize(e.Value), e.ParamName, sanitize(e.Min), sanitize(e.Max))
	return withCause(msg, e.Cause)
}

func (e *ValueIsOutOfRangeError) Unwrap() error {
	return ErrValueIsOutOfRange
}

// ValueIsRequiredError reports a missing or empty value.
type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName}
}

func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsRequiredError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName), e.Cause)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

// VersionIsInvalidError reports an optimistic concurrency conflict: the stored
// version no longer matches the one the writer read.
type VersionIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewVersionIsInvalidError(paramName string) *VersionIsInvalidError {
	return &VersionIsInvalidError{ParamName: paramName}
}

func NewVersionIsInvalidErrorWithCause(paramName string, cause error) *VersionIsInvalidError {
	return &VersionIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *VersionIsInvalidError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrVersionIsInvalid, e.ParamName), e.Cause)
}

func (e *VersionIsInvalidError) Unwrap() error {
	return ErrVersionIsInvalid
}

// ObjectIsCorruptedError reports a persisted object that cannot be parsed
// back into a valid domain object.
type ObjectIsCorruptedError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectIsCorruptedError(paramName string, id any) *ObjectIsCorruptedError {
	return &ObjectIsCorruptedError{ParamName: paramName, ID: id}
}

func NewObjectIsCorruptedErrorWithCause(paramName string, id any, cause error) *ObjectIsCorruptedError {
	return &ObjectIsCorruptedError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectIsCorruptedError) Error() string {
	msg := fmt.Sprintf("%s: %s %s", ErrObjectIsCorrupted, e.ParamName, sanitize(e.ID))
	return withCause(msg, e.Cause)
}

func (e *ObjectIsCorruptedError) Unwrap() error {
	return ErrObjectIsCorrupted
}

// ObjectAlreadyExistsError reports an identifier that is already taken.
// Callers are expected to generate a new identifier and try again.
type ObjectAlreadyExistsError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectAlreadyExistsError(paramName string, id any) *ObjectAlreadyExistsError {
	return &ObjectAlreadyExistsError{ParamName: paramName, ID: id}
}

func NewObjectAlreadyExistsErrorWithCause(paramName string, id any, cause error) *ObjectAlreadyExistsError {
	return &ObjectAlreadyExistsError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectAlreadyExistsError) Error() string {
	msg := fmt.Sprintf("%s: %s %s, please try again", ErrObjectAlreadyExists, e.ParamName, sanitize(e.ID))
	return withCause(msg, e.Cause)
}

func (e *ObjectAlreadyExistsError) Unwrap() error {
	return ErrObjectAlreadyExists
}

// TransitionIsInvalidError reports a state change that is not allowed from
// the current state.
type TransitionIsInvalidError struct {
	ParamName string
	From      string
	To        string
}

func NewTransitionIsInvalidError(paramName, from, to string) *TransitionIsInvalidError {
	return &TransitionIsInvalidError{ParamName: paramName, From: from, To: to}
}

func (e *TransitionIsInvalidError) Error() string {
	return fmt.Sprintf("%s: %s cannot change from %q to %q", ErrTransitionIsInvalid, e.ParamName, e.From, e.To)
}

func (e *TransitionIsInvalidError) Unwrap() error {
	return ErrTransitionIsInvalid
}

// StoreIsUnavailableError reports a transient storage failure (contention,
// connectivity). Operations failing with it may be retried.
type StoreIsUnavailableError struct {
	Operation string
	Cause     error
}

func NewStoreIsUnavailableError(operation string, cause error) *StoreIsUnavailableError {
	return &StoreIsUnavailableError{Operation: operation, Cause: cause}
}

func (e *StoreIsUnavailableError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrStoreIsUnavailable, e.Operation), e.Cause)
}

func (e *StoreIsUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrStoreIsUnavailable}
	}
	return []error{ErrStoreIsUnavailable, e.Cause}
}

// RetriesAreExhaustedError wraps the last error of an operation that kept
// failing transiently until it ran out of attempts.
type RetriesAreExhaustedError struct {
	Operation string
	Attempts  int
	Cause     error
}

func NewRetriesAreExhaustedError(operation string, attempts int, cause error) *RetriesAreExhaustedError {
	return &RetriesAreExhaustedError{Operation: operation, Attempts: attempts, Cause: cause}
}

func (e *RetriesAreExhaustedError) Error() string {
	msg := fmt.Sprintf("%s: %s failed after %d attempts", ErrRetriesAreExhausted, e.Operation, e.Attempts)
	return withCause(msg, e.Cause)
}

func (e *RetriesAreExhaustedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRetriesAreExhausted}
	}
	return []error{ErrRetriesAreExhausted, e.Cause}
}

// IsTransient reports whether err is worth retrying: store unavailability or
// an optimistic version conflict. Semantic failures are never transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreIsUnavailable) || errors.Is(err, ErrVersionIsInvalid)
}
