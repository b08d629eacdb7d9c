package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"benlowery/agentctl/internal/domain"
)

// PollInterval is the base delay between successive poll requests.
// Exported as a variable so tests can override it for speed.
var PollInterval = time.Second

// DefaultTimeout is the wait budget for generic commands. Most agent
// commands (ping, file reads, diagnostics) finish within a few seconds;
// 25 s leaves headroom for an agent that is slow to pick work up.
var DefaultTimeout = 25 * time.Second

// PackageTimeout is the wait budget for package operations (install,
// uninstall, update, patch), which routinely take minutes.
var PackageTimeout = 120 * time.Second

const (
	// backoffStep grows the poll spacing by 100 ms per attempt.
	backoffStep = 100 * time.Millisecond

	// backoffCap bounds worst-case spacing at PollInterval + 1 s.
	backoffCap = time.Second
)

// WaitForCommand polls the store until the command reaches a terminal status
// or timeout elapses since the first fetch.
//
// The loop is bounded by time, not by attempt count: a single failed fetch is
// treated as "not yet terminal" and retried on the next interval, so brief
// network blips don't abandon a command that is still executing agent-side.
// Credential and unknown-ID failures are fatal and propagate immediately.
//
// On deadline the call fails with a [domain.TimeoutError] carrying the
// command ID, elapsed time, and the last status observed. No partial result
// is synthesized.
//
// Progress messages are written to w (typically cmd.ErrOrStderr()).
func WaitForCommand(
	ctx context.Context,
	store domain.CommandStore,
	id string,
	timeout time.Duration,
	w io.Writer,
) (*domain.Command, error) {
	if id == "" {
		return nil, fmt.Errorf("dispatch: empty command id")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if w == nil {
		w = io.Discard
	}

	start := time.Now()
	var lastStatus domain.Status

	for attempt := 0; ; attempt++ {
		command, err := store.GetCommand(ctx, id)
		switch {
		case err == nil:
			lastStatus = command.Status
			if command.IsComplete() {
				return command, nil
			}
			// Show the transitional status (e.g. "sent", "running").
			fmt.Fprintf(w, "  Status: %s\n", command.Status)

		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("polling stopped: %w", err)

		default:
			fmt.Fprintf(w, "  Transient error, retrying: %v\n", err)
		}

		elapsed := time.Since(start)
		if elapsed >= timeout {
			return nil, &domain.TimeoutError{
				CommandID:  id,
				Elapsed:    elapsed,
				LastStatus: lastStatus,
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(PollInterval + pollBackoff(attempt)):
		}
	}
}

// pollBackoff returns the extra spacing added to the base interval for the
// given attempt. It grows linearly and is capped so a long wait settles at
// PollInterval + backoffCap rather than growing without bound.
func pollBackoff(attempt int) time.Duration {
	d := time.Duration(attempt) * backoffStep
	if d > backoffCap {
		return backoffCap
	}
	return d
}
