package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for cross-transport error classification.
// The console client wraps these so command code can handle error
// categories uniformly without inspecting HTTP status codes.
//
//	return fmt.Errorf("failed to fetch command: %w", domain.ErrNotFound)
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the console API throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates a state or uniqueness conflict, such as
	// dispatching to an agent that is being deregistered.
	ErrConflict = errors.New("conflict")
)

// TimeoutError is returned when a command fails to reach a terminal status
// within the wait deadline. No partial result is synthesized; the command may
// still complete server-side after the console stops watching.
type TimeoutError struct {
	// CommandID is the command that was being waited on.
	CommandID string

	// Elapsed is the wall-clock time spent waiting.
	Elapsed time.Duration

	// LastStatus is the last status observed before giving up, if any
	// fetch succeeded.
	LastStatus Status
}

func (e *TimeoutError) Error() string {
	if e.LastStatus != "" {
		return fmt.Sprintf("timed out waiting for command %s after %s (last status: %s)",
			e.CommandID, e.Elapsed.Truncate(time.Millisecond), e.LastStatus)
	}
	return fmt.Sprintf("timed out waiting for command %s after %s",
		e.CommandID, e.Elapsed.Truncate(time.Millisecond))
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
