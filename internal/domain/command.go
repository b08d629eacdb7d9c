// Package domain holds the core models shared across the console CLI:
// commands, agents, and the error vocabulary the transport maps onto.
package domain

import (
	"strings"
	"time"
)

// Status is the canonical command lifecycle state. Producers spell terminal
// states inconsistently on the wire ("Success" vs "Completed", "Failed" vs
// "Error"); NormalizeStatus collapses them at the transport boundary so the
// rest of the code never string-matches aliases.
type Status string

const (
	// StatusPending means the console accepted the command but has not
	// yet delivered it to the agent.
	StatusPending Status = "pending"

	// StatusSent means the agent received the command and has not started
	// executing it.
	StatusSent Status = "sent"

	// StatusRunning means execution is in progress on the agent.
	StatusRunning Status = "running"

	// StatusSucceeded is the successful terminal state.
	StatusSucceeded Status = "succeeded"

	// StatusFailed is the unsuccessful terminal state.
	StatusFailed Status = "failed"

	// StatusCancelled means the command was aborted before or during
	// execution.
	StatusCancelled Status = "cancelled"
)

// statusAliases maps legacy wire spellings to the canonical set.
var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"sent":        StatusSent,
	"running":     StatusRunning,
	"in_progress": StatusRunning,
	"success":     StatusSucceeded,
	"succeeded":   StatusSucceeded,
	"completed":   StatusSucceeded,
	"failed":      StatusFailed,
	"error":       StatusFailed,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
}

// NormalizeStatus maps a raw wire status to the canonical enum. Matching is
// case-insensitive. An unrecognized spelling passes through lowercased so it
// is visible in output rather than silently swallowed; unknown statuses are
// never terminal.
func NormalizeStatus(raw string) Status {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return Status(key)
}

// IsTerminal reports whether the status can never change again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsSuccess reports whether the command finished successfully.
func (s Status) IsSuccess() bool { return s == StatusSucceeded }

// IsFailure reports whether the command reached an unsuccessful terminal
// state, including cancellation.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusCancelled
}

// Command is a dispatched imperative command and its current lifecycle
// record as held by the console.
type Command struct {
	// ID is the console-assigned command identifier.
	ID string `json:"id"`

	// AgentID is the target agent.
	AgentID string `json:"agent_id"`

	// IssuedBy identifies the operator who dispatched the command.
	IssuedBy string `json:"issued_by,omitempty"`

	// Type is the command-type tag, e.g. "ping" or "pkg_install".
	Type string `json:"type"`

	// Params is the serialized parameter payload. Its semantics belong to
	// the command type; the lifecycle code treats it as opaque.
	Params string `json:"params,omitempty"`

	// Status is the canonical lifecycle state.
	Status Status `json:"status"`

	// Result is the opaque result text, meaningful only once terminal.
	// On failure it may carry partial human-readable diagnostics.
	Result string `json:"result,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Duration is the execution time reported by the agent, when known.
	Duration time.Duration `json:"-"`
}

// IsComplete reports whether the command has reached a terminal status.
func (c *Command) IsComplete() bool {
	return c != nil && c.Status.IsTerminal()
}
