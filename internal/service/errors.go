package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"fitinsight/internal/strava"
)

// ValidationError reports an invalid request parameter.
// It is returned before any repository call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// FetchError reports a failure of a repository or provider call
type FetchError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// fetchError wraps err from op, classifying whether a retry may succeed
func fetchError(op string, err error) *FetchError {
	return &FetchError{Op: op, Retryable: isTransient(err), Err: err}
}

// IsRetryable reports whether err is a transient failure
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return isTransient(err)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}

	var apiErr *strava.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
