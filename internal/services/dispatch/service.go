// Package dispatch implements the command lifecycle: dispatching an
// imperative command to a remote agent through the console API, polling its
// record until it reaches a terminal status, and decoding the result payload.
//
// It also provides the two batch primitives layered on top: a bounded worker
// pool for fanning low-impact read commands across the fleet, and a
// sequential bulk runner for the package operation catalog.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"benlowery/agentctl/internal/cmdstore"
	"benlowery/agentctl/internal/domain"
)

// Service composes dispatch, wait, and decode against a command store.
// Every console feature (diagnostics, security scans, inventory refresh,
// package operations) goes through Run; features differ only in command
// type and parameter shape.
//
// When a local repository is configured, dispatched commands are recorded so
// that an interrupted wait can be resumed on the next invocation.
type Service struct {
	store domain.CommandStore
	repo  cmdstore.Repository
	out   io.Writer
}

// Option configures a Service.
type Option func(*Service)

// WithRepository enables local tracking of dispatched commands.
func WithRepository(repo cmdstore.Repository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithOutput directs poll progress messages to w.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.out = w }
}

// NewService creates a dispatch service over the given store.
func NewService(store domain.CommandStore, opts ...Option) *Service {
	s := &Service{store: store, out: io.Discard}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases repository resources.
func (s *Service) Close() error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Close()
}

// Run dispatches a command to an agent and blocks until it reaches a
// terminal status.
//
// Creation failures and wait timeouts propagate as errors. A command that
// reaches a failure terminal status is NOT an error here; the terminal
// record is returned so callers (and batch code) can treat it uniformly as
// an outcome. Use [Decode] or check Status.IsSuccess on the result.
func (s *Service) Run(ctx context.Context, agentID, commandType string, params any, timeout time.Duration) (*domain.Command, error) {
	payload, err := encodeParams(params)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s: %w", commandType, err)
	}

	created, err := s.store.CreateCommand(ctx, domain.CreateCommand{
		AgentID: agentID,
		Type:    commandType,
		Params:  payload,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch %s to agent %s: %w", commandType, agentID, err)
	}

	record := s.track(created)

	final, err := WaitForCommand(ctx, s.store, created.ID, timeout, s.out)
	if err != nil {
		s.recordWaitError(record, err)
		return nil, err
	}

	s.finalize(record, final.Status, failureText(final))
	return final, nil
}

// RunTyped dispatches a command and decodes its terminal result into T.
// It is a package function because methods cannot be generic.
func RunTyped[T any](ctx context.Context, s *Service, agentID, commandType string, params any, timeout time.Duration) (Outcome[T], error) {
	final, err := s.Run(ctx, agentID, commandType, params, timeout)
	if err != nil {
		return Outcome[T]{Err: err.Error()}, err
	}
	return Decode[T](final), nil
}

// Resume re-enters the wait loop for a previously tracked command, updating
// the local record with the terminal outcome.
func (s *Service) Resume(ctx context.Context, record *cmdstore.Record, timeout time.Duration) (*domain.Command, error) {
	if record == nil {
		return nil, fmt.Errorf("dispatch: record is nil")
	}

	final, err := WaitForCommand(ctx, s.store, record.CommandID, timeout, s.out)
	if err != nil {
		s.recordWaitError(record, err)
		return nil, err
	}

	record.Status = string(final.Status)
	record.ErrorMessage = failureText(final)
	if s.repo != nil {
		_ = s.repo.Save(record)
	}
	return final, nil
}

// ListPending returns all locally tracked commands that have not been
// observed reaching a terminal status.
func (s *Service) ListPending() ([]cmdstore.Record, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("dispatch: repository unavailable")
	}
	return s.repo.ListPending()
}

// ListRecent returns the most recent n tracked commands.
func (s *Service) ListRecent(n int) ([]cmdstore.Record, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("dispatch: repository unavailable")
	}
	return s.repo.ListRecent(n)
}

// track persists a new record for a freshly dispatched command.
// If persistence fails, it returns nil so dispatch proceeds untracked;
// the console should not fail just because local tracking is unavailable.
func (s *Service) track(command *domain.Command) *cmdstore.Record {
	if s.repo == nil || command == nil {
		return nil
	}

	record := &cmdstore.Record{
		CommandID:   command.ID,
		AgentID:     command.AgentID,
		CommandType: command.Type,
		Status:      string(command.Status),
	}

	if err := s.repo.Save(record); err != nil {
		return nil
	}

	// Opportunistically clean up old completed records.
	_, _ = s.repo.DeleteOlderThan(24 * time.Hour)

	return record
}

// recordWaitError updates a tracked record after a wait that ended without
// a terminal status. A timeout or context cancellation leaves the record at
// its last observed non-terminal status so `commands --resume` can pick it
// up later; any other wait error marks the record failed.
func (s *Service) recordWaitError(record *cmdstore.Record, err error) {
	if s.repo == nil || record == nil {
		return
	}

	var timeoutErr *domain.TimeoutError
	switch {
	case errors.As(err, &timeoutErr):
		if timeoutErr.LastStatus != "" {
			record.Status = string(timeoutErr.LastStatus)
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Keep the last recorded status.
	default:
		record.Status = string(domain.StatusFailed)
	}

	record.ErrorMessage = err.Error()
	_ = s.repo.Save(record)
}

// finalize updates a tracked record with its terminal status.
func (s *Service) finalize(record *cmdstore.Record, status domain.Status, errMsg string) {
	if s.repo == nil || record == nil {
		return
	}

	record.Status = string(status)
	record.ErrorMessage = errMsg
	_ = s.repo.Save(record)
}

// encodeParams turns command parameters into the flat string the store
// accepts. Strings and byte slices pass through untouched; anything else is
// JSON-marshalled.
func encodeParams(params any) (string, error) {
	switch p := params.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case []byte:
		return string(p), nil
	default:
		data, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("failed to encode parameters: %w", err)
		}
		return string(data), nil
	}
}

// failureText extracts the best available error text from a terminal
// command, or "" when it succeeded.
func failureText(command *domain.Command) string {
	if command == nil || command.Status.IsSuccess() {
		return ""
	}
	if command.Result != "" {
		return command.Result
	}
	return fmt.Sprintf("command %s: status %s", command.ID, command.Status)
}
