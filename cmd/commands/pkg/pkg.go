package pkg

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"benlowery/agentctl/internal/cmdstore"
	"benlowery/agentctl/internal/console"
	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/services/auth"
	"benlowery/agentctl/internal/services/dispatch"
	"benlowery/agentctl/internal/util"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// connect builds the console client. Declared as a variable so tests can
// substitute a fake console.
var connect = func() (domain.Console, error) {
	return console.Connect(auth.DefaultStore())
}

// skipConfirm disables the interactive confirmation prompt. Overridden by
// the --yes flag and by tests.
var skipConfirm = false

// NewCommand returns the "pkg" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkg",
		Short: "Run package operations across agents",
		Long: `Run a package operation (install, uninstall, update, patch) against one
or more agents.

Targets are processed one at a time, in the order given: package
operations are heavy enough to overwhelm an agent if parallelized, and a
deterministic order makes partial failures easier to reason about. A
failed target never stops the rest of the batch; the summary lists every
target's outcome.`,
	}

	cmd.PersistentFlags().StringSlice("agents", nil, "Comma-separated target agent IDs (required)")
	cmd.PersistentFlags().Bool("yes", false, "Skip the confirmation prompt")

	cmd.AddCommand(InstallCommand())
	cmd.AddCommand(UninstallCommand())
	cmd.AddCommand(UpdateCommand())
	cmd.AddCommand(PatchCommand())

	return cmd
}

// targetsFromFlags reads and validates the --agents flag, deduplicating
// while preserving order.
func targetsFromFlags(cmd *cobra.Command) ([]string, error) {
	agents, _ := cmd.Flags().GetStringSlice("agents")

	seen := make(map[string]bool, len(agents))
	targets := make([]string, 0, len(agents))
	for _, id := range agents {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if err := util.ValidateAgentID(id); err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, id)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one agent is required (--agents)")
	}
	return targets, nil
}

// confirmBulk asks before a fleet-affecting operation. Returns true when
// the run should proceed.
func confirmBulk(cmd *cobra.Command, op dispatch.Operation, targets []string) bool {
	yes, _ := cmd.Flags().GetBool("yes")
	if yes || skipConfirm {
		return true
	}

	var proceed bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Run %s on %d agent(s)?", op, len(targets))).
		Description(strings.Join(targets, ", ")).
		Value(&proceed).
		Run()
	if err != nil {
		return false
	}
	return proceed
}

// runBulk executes the operation and prints the per-target summary.
func runBulk(cmd *cobra.Command, op dispatch.Operation, params dispatch.BulkParams) {
	targets, err := targetsFromFlags(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	if !confirmBulk(cmd, op, targets) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
		return
	}

	client, err := connect()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	service := newService(client, cmd)
	defer service.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Fprintf(cmd.ErrOrStderr(), "Running %s on %d agent(s)...\n", op, len(targets))

	results, err := service.RunBulk(ctx, targets, op, params)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	printSummary(cmd, results)
}

// newService wires the dispatch service with local tracking when available.
func newService(client domain.CommandStore, cmd *cobra.Command) *dispatch.Service {
	opts := []dispatch.Option{dispatch.WithOutput(cmd.ErrOrStderr())}
	if repo, err := cmdstore.Open(); err == nil {
		opts = append(opts, dispatch.WithRepository(repo))
	}
	return dispatch.NewService(client, opts...)
}

// printSummary renders the per-target outcome table and a success count.
func printSummary(cmd *cobra.Command, results []dispatch.BulkResult) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "AGENT\tRESULT\tDETAIL\n")

	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
			detail := ""
			if res.Command != nil && res.Command.Duration > 0 {
				detail = res.Command.Duration.Truncate(time.Millisecond).String()
			}
			fmt.Fprintf(w, "%s\tok\t%s\n", res.AgentID, detail)
			continue
		}
		fmt.Fprintf(w, "%s\tfailed\t%s\n", res.AgentID, truncate(res.Err, 60))
	}
	w.Flush()

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d succeeded\n", succeeded, len(results))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
