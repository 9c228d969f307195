package util

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the service reacts to.
const (
	pgUniqueViolation       = "23505"
	pgForeignKeyViolation   = "23503"
	pgCheckViolation        = "23514"
	pgNotNullViolation      = "23502"
	pgInvalidTextRepr       = "22P02"
	pgInvalidDatetimeFormat = "22007"
	pgDatetimeFieldOverflow = "22008"
	pgTooManyConnections    = "53300"
	pgCannotConnectNow      = "57P03"
	pgSerializationFailure  = "40001"
	pgDeadlockDetected      = "40P01"
	pgQueryCanceled         = "57014"
	pgAdminShutdown         = "57P01"
)

// IsUniqueViolation reports whether err is a duplicate key error.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// IsInvalidInput reports whether the database rejected a value, e.g. an
// unknown enum label or a malformed date.
func IsInvalidInput(err error) bool {
	switch pgCode(err) {
	case pgInvalidTextRepr, pgCheckViolation, pgNotNullViolation,
		pgInvalidDatetimeFormat, pgDatetimeFieldOverflow, pgForeignKeyViolation:
		return true
	}
	return false
}

// IsRetryableError determines if an error is transient
// Returns: (isRetryable, errorType)
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return false, "not_found"
	}

	switch pgCode(err) {
	case pgUniqueViolation:
		return false, "duplicate_key"
	case pgTooManyConnections, pgCannotConnectNow, pgAdminShutdown:
		return true, "db_unavailable"
	case pgSerializationFailure, pgDeadlockDetected:
		return true, "db_conflict"
	case pgQueryCanceled:
		return true, "timeout"
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		// pool acquire or statement ran past the request deadline
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true, "db_connection_error"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	return false, "unknown_error"
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
