package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"fitinsight/internal/strava"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("querying: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
		{"bad conn", driver.ErrBadConn, true},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutError{}}, true},
		{"rate limited", &strava.APIError{StatusCode: 429}, true},
		{"provider down", fmt.Errorf("fetching page 1: %w", &strava.APIError{StatusCode: 503}), true},
		{"unauthorized", &strava.APIError{StatusCode: 401}, false},
		{"plain", errors.New("syntax error"), false},
		{"classified", &FetchError{Op: "x", Retryable: true, Err: errors.New("boom")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestFetchErrorUnwraps(t *testing.T) {
	err := fetchError("listing sessions", context.DeadlineExceeded)

	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "listing sessions: context deadline exceeded", err.Error())
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "userID", Message: "must be a positive integer"}
	assert.Equal(t, "invalid userID: must be a positive integer", err.Error())
}
