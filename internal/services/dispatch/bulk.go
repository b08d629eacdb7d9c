package dispatch

import (
	"context"
	"fmt"
	"time"

	"benlowery/agentctl/internal/domain"
)

// Operation is one of the fleet-wide package operations RunBulk accepts.
// The catalog is closed: anything else is rejected up front.
type Operation string

const (
	OpInstall   Operation = "install"
	OpUninstall Operation = "uninstall"
	OpUpdate    Operation = "update"
	OpPatch     Operation = "patch"
)

// commandTypes maps each operation to the command-type tag agents execute.
var commandTypes = map[Operation]string{
	OpInstall:   "pkg_install",
	OpUninstall: "pkg_uninstall",
	OpUpdate:    "pkg_update",
	OpPatch:     "pkg_patch",
}

// Valid reports whether o is in the operation catalog.
func (o Operation) Valid() bool {
	_, ok := commandTypes[o]
	return ok
}

// BulkParams is the parameter payload shared by the package operations.
type BulkParams struct {
	// Package names the software package; empty for fleet patch runs.
	Package string `json:"package,omitempty"`

	// Version pins a specific version, when the operation supports it.
	Version string `json:"version,omitempty"`

	// ScheduledAt defers execution to a maintenance window.
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// BulkResult is the per-target outcome of a bulk run.
type BulkResult struct {
	// AgentID is the target this outcome belongs to.
	AgentID string

	// Success is true when the command reached the successful terminal
	// state. A timeout, dispatch failure, or failure status all yield
	// false with the best available error text in Err.
	Success bool

	// Command is the terminal record, when one was observed.
	Command *domain.Command

	// Err is the failure text when Success is false.
	Err string
}

// RunBulk applies op to each agent in turn, collecting one outcome per
// target. The batch never aborts early: a failed or timed-out target is
// recorded and the runner moves on to the next.
//
// Targets are processed sequentially rather than pooled. Package operations
// can overwhelm an agent's install subsystem if parallelized, and operators
// want a deterministic order of application with per-target observability;
// pooling is reserved for read-only status sweeps (see ForEach).
func (s *Service) RunBulk(ctx context.Context, agentIDs []string, op Operation, params BulkParams) ([]BulkResult, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("dispatch: unknown bulk operation %q", op)
	}

	results := make([]BulkResult, 0, len(agentIDs))
	for _, agentID := range agentIDs {
		res := BulkResult{AgentID: agentID}

		command, err := s.Run(ctx, agentID, commandTypes[op], params, PackageTimeout)
		if err != nil {
			res.Err = err.Error()
			results = append(results, res)
			// A cancelled context will fail every remaining target the
			// same way; stop instead of burning through the list.
			if ctx.Err() != nil {
				break
			}
			continue
		}

		res.Command = command
		if command.Status.IsSuccess() {
			res.Success = true
		} else {
			res.Err = failureText(command)
		}
		results = append(results, res)
	}

	return results, nil
}
