package dispatch

import (
	"encoding/json"
	"fmt"

	"benlowery/agentctl/internal/domain"
)

// Outcome is the decoded tri-state of a terminal command.
//
// Decoding is best-effort: a successful command whose result text is not
// parseable as T is still a success; the raw text is preserved in Raw and
// Data stays nil. Callers must therefore distinguish "succeeded with payload"
// (Data != nil) from "succeeded without" (Data == nil).
type Outcome[T any] struct {
	// Success is true when the command reached the successful terminal state.
	Success bool

	// Data is the parsed result payload, or nil when the command produced
	// no structured payload.
	Data *T

	// Raw is the result text exactly as the agent wrote it.
	Raw string

	// Err is the failure message when Success is false.
	Err string

	// Command is the originating terminal record, kept for traceability
	// (timestamps, duration).
	Command *domain.Command
}

// Decode interprets a terminal command's free-form result text.
//
// It never fails: malformed payloads degrade to the raw string, a failed
// command's result text becomes the error message, and a cancelled command
// reports cancellation when the agent left no diagnostic text behind.
func Decode[T any](command *domain.Command) Outcome[T] {
	out := Outcome[T]{Command: command}
	if command == nil {
		out.Err = "no command record"
		return out
	}
	out.Raw = command.Result

	switch {
	case command.Status.IsSuccess():
		out.Success = true
		if command.Result == "" {
			return out
		}
		var data T
		if err := json.Unmarshal([]byte(command.Result), &data); err == nil {
			out.Data = &data
		}
		return out

	case command.Status == domain.StatusCancelled:
		out.Err = command.Result
		if out.Err == "" {
			out.Err = fmt.Sprintf("command %s was cancelled", command.ID)
		}
		return out

	default:
		// Failure set: the same result field carries the human-readable
		// error message rather than data.
		out.Err = command.Result
		if out.Err == "" {
			out.Err = fmt.Sprintf("command %s failed", command.ID)
		}
		return out
	}
}
