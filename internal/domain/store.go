package domain

import "context"

// CreateCommand is the request for dispatching a new command.
type CreateCommand struct {
	// AgentID identifies the target agent.
	AgentID string `json:"agent_id"`

	// Type is the command-type tag, e.g. "ping" or "pkg_install".
	Type string `json:"type"`

	// Params is the serialized parameter payload.
	Params string `json:"params,omitempty"`
}

// CommandStore is the authoritative record store for dispatched commands.
// Implementations are expected to be already authenticated; credential
// failures surface as [ErrUnauthorized].
type CommandStore interface {
	// CreateCommand dispatches a new command and returns the initial
	// record (status "pending"). Failures propagate synchronously and
	// are never retried by callers.
	CreateCommand(ctx context.Context, req CreateCommand) (*Command, error)

	// GetCommand fetches the current record for a command ID, or fails
	// with ErrNotFound if the ID is unknown.
	GetCommand(ctx context.Context, id string) (*Command, error)
}

// AgentDirectory provides read access to the console's agent registry.
type AgentDirectory interface {
	// ListAgents returns all registered agents.
	ListAgents(ctx context.Context) ([]Agent, error)

	// GetAgent fetches a single agent by ID.
	GetAgent(ctx context.Context, id string) (*Agent, error)
}

// Console is the full client surface the CLI commands operate against.
type Console interface {
	CommandStore
	AgentDirectory
}
