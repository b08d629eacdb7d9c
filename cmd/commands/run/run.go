package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"benlowery/agentctl/internal/cmdstore"
	"benlowery/agentctl/internal/config"
	"benlowery/agentctl/internal/console"
	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/services/auth"
	"benlowery/agentctl/internal/services/dispatch"
	"benlowery/agentctl/internal/util"

	"github.com/spf13/cobra"
)

// connect builds the console client. Declared as a variable so tests can
// substitute a fake console.
var connect = func() (domain.Console, error) {
	return console.Connect(auth.DefaultStore())
}

// NewCommand returns the "run" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch a command to an agent and wait for the result",
		Long: `Dispatch a single command to an agent and wait for it to complete.

The command waits by polling the console until the command record reaches
a terminal status. The dispatched command is tracked locally so that if
the CLI is interrupted, the wait can be resumed with
"agentctl commands --resume".

Examples:
  agentctl run --agent dev-1 --type ping
  agentctl run --agent db-3 --type read_file --params '{"path":"/etc/hosts"}'
  agentctl run --agent web-2 --type collect_diagnostics --timeout 90s`,
		Run: runRun,
	}

	cmd.Flags().String("agent", "", "Target agent ID (required)")
	cmd.Flags().String("type", "", "Command type tag, e.g. ping (required)")
	cmd.Flags().String("params", "", "Parameter payload (JSON or plain string)")
	cmd.Flags().Duration("timeout", 0, "Wait budget (default from config, else 25s)")
	cmd.MarkFlagRequired("agent")
	cmd.MarkFlagRequired("type")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) {
	agentID, _ := cmd.Flags().GetString("agent")
	commandType, _ := cmd.Flags().GetString("type")
	params, _ := cmd.Flags().GetString("params")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if err := util.ValidateAgentID(agentID); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	client, err := connect()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	if timeout <= 0 {
		if cfg, err := config.Load(); err == nil {
			timeout = cfg.Timeout()
		}
	}

	service := newService(client, cmd)
	defer service.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Dispatching %s to agent %s...\n", commandType, agentID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	final, err := service.Run(ctx, agentID, commandType, params, timeout)
	if err != nil {
		if domain.IsTimeout(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			fmt.Fprintln(cmd.ErrOrStderr(), "The command may still complete; check later with \"agentctl commands --resume\".")
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	printOutcome(cmd, final)
}

// newService wires the dispatch service with local tracking. If the store
// cannot be opened the command proceeds without persistence; the CLI
// should not fail just because local tracking is unavailable.
func newService(client domain.CommandStore, cmd *cobra.Command) *dispatch.Service {
	opts := []dispatch.Option{dispatch.WithOutput(cmd.ErrOrStderr())}
	if repo, err := cmdstore.Open(); err == nil {
		opts = append(opts, dispatch.WithRepository(repo))
	}
	return dispatch.NewService(client, opts...)
}

// printOutcome reports a terminal command to the user.
func printOutcome(cmd *cobra.Command, final *domain.Command) {
	outcome := dispatch.Decode[map[string]any](final)

	if !outcome.Success {
		fmt.Fprintf(cmd.ErrOrStderr(), "Command %s finished with status %s: %s\n",
			final.ID, final.Status, outcome.Err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Command %s succeeded", final.ID)
	if final.Duration > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " in %s", final.Duration.Truncate(time.Millisecond))
	}
	fmt.Fprintln(cmd.OutOrStdout())

	switch {
	case outcome.Data != nil:
		for key, value := range *outcome.Data {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", key, value)
		}
	case outcome.Raw != "":
		// Unstructured result text is shown as-is.
		fmt.Fprintln(cmd.OutOrStdout(), outcome.Raw)
	}
}
