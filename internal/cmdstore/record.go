package cmdstore

import "time"

// Record is a locally persisted dispatched command. It carries the metadata
// needed to resume waiting on a command after a CLI restart; the console API
// record remains authoritative for status and result.
type Record struct {
	// ID is the auto-increment primary key (assigned on insert).
	ID int64

	// CommandID is the console-assigned command identifier used for polling.
	CommandID string

	// AgentID is the target agent.
	AgentID string

	// CommandType is the dispatched command-type tag, e.g. "pkg_install".
	CommandType string

	// Status is the last observed lifecycle state (canonical spelling).
	Status string

	// ErrorMessage holds failure text once the command reaches a failure
	// terminal state, or the wait error if polling was abandoned.
	ErrorMessage string

	// CreatedAt is when the command was first recorded.
	CreatedAt time.Time

	// UpdatedAt is the last time the record was modified.
	UpdatedAt time.Time
}
