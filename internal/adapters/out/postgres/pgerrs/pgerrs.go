// Package pgerrs maps Postgres driver errors onto the errs taxonomy.
package pgerrs

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"

	"restaurant/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

// SQLSTATE codes handled explicitly.
const (
	UniqueViolation      = "23505"
	SerializationFailure = "40001"
	DeadlockDetected     = "40P01"
	LockNotAvailable     = "55P03"
	QueryCanceled        = "57014"
	AdminShutdown        = "57P01"
	CannotConnectNow     = "57P03"
)

// Code returns the SQLSTATE of err, or "" if err does not come from Postgres.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique or primary key violation.
func IsUniqueViolation(err error) bool {
	return Code(err) == UniqueViolation
}

// IsTransient reports whether retrying the whole transaction may succeed:
// contention (serialization failures, deadlocks, lock timeouts) and lost or
// refused connections. Errors caused by the caller's own context are never
// transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch code := Code(err); {
	case code == SerializationFailure, code == DeadlockDetected, code == LockNotAvailable,
		code == QueryCanceled, code == AdminShutdown, code == CannotConnectNow:
		return true
	case strings.HasPrefix(code, "08"): // connection exception class
		return true
	case code != "":
		return false
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	return errors.As(err, &connectErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		pgconn.SafeToRetry(err)
}

// Classify wraps a failed store operation. Transient failures become
// errs.StoreIsUnavailableError; everything else is wrapped with the
// operation name and keeps its cause.
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return errs.NewStoreIsUnavailableError(operation, err)
	}
	return pkgerrors.Wrap(err, operation)
}
