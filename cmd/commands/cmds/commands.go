package cmds

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"benlowery/agentctl/internal/cmdstore"
	"benlowery/agentctl/internal/console"
	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/services/auth"
	"benlowery/agentctl/internal/services/dispatch"

	"github.com/spf13/cobra"
)

// connect builds the console client. Declared as a variable so tests can
// substitute a fake console.
var connect = func() (domain.Console, error) {
	return console.Connect(auth.DefaultStore())
}

// NewCommand returns a cobra.Command that lists and resumes tracked commands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List or resume tracked commands",
		Long: `Show commands that were dispatched by previous CLI invocations.

By default, only pending (in-flight) commands are shown. Use --all to
include completed and failed commands as well.

If a previous dispatch was interrupted (Ctrl+C) or timed out, the command
remains tracked locally. Use --resume to resume waiting on all pending
commands until they complete.

Examples:
  agentctl commands                     # Show pending commands
  agentctl commands --all               # Show all recent commands
  agentctl commands --resume            # Resume waiting on pending commands`,
		Run: runCommands,
	}

	cmd.Flags().Bool("all", false, "Show all recent commands, not just pending")
	cmd.Flags().Bool("resume", false, "Resume waiting on all pending commands")

	return cmd
}

func runCommands(cmd *cobra.Command, args []string) {
	showAll, _ := cmd.Flags().GetBool("all")
	resume, _ := cmd.Flags().GetBool("resume")

	repo, err := cmdstore.Open()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error opening command store: %v\n", err)
		return
	}
	defer repo.Close()

	if resume {
		resumePending(cmd, repo)
		return
	}

	var records []cmdstore.Record
	if showAll {
		records, err = repo.ListRecent(20)
	} else {
		records, err = repo.ListPending()
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error listing commands: %v\n", err)
		return
	}

	if len(records) == 0 {
		if showAll {
			fmt.Fprintln(cmd.OutOrStdout(), "No recent commands.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No pending commands.")
		}
		return
	}

	printRecords(cmd, records)

	// Hint about --resume when there are pending commands.
	if !showAll {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nUse --resume to resume waiting on these commands.\n")
	}
}

func printRecords(cmd *cobra.Command, records []cmdstore.Record) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tAGENT\tTYPE\tSTATUS\tAGE\n")

	for _, r := range records {
		age := time.Since(r.CreatedAt).Truncate(time.Second)

		status := r.Status
		if domain.Status(r.Status).IsFailure() && r.ErrorMessage != "" {
			status = fmt.Sprintf("%s: %s", r.Status, truncate(r.ErrorMessage, 40))
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.AgentID, r.CommandType, status, formatDuration(age))
	}

	w.Flush()
}

func resumePending(cmd *cobra.Command, repo *cmdstore.SQLiteRepository) {
	pending, err := repo.ListPending()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error listing pending commands: %v\n", err)
		return
	}

	if len(pending) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pending commands to resume.")
		return
	}

	client, err := connect()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	service := dispatch.NewService(client,
		dispatch.WithRepository(repo),
		dispatch.WithOutput(cmd.ErrOrStderr()))

	fmt.Fprintf(cmd.ErrOrStderr(), "Resuming %d pending command(s)...\n\n", len(pending))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	for i := range pending {
		resumeOne(ctx, cmd, service, &pending[i])
		if ctx.Err() != nil {
			return
		}
	}
}

func resumeOne(ctx context.Context, cmd *cobra.Command, service *dispatch.Service, record *cmdstore.Record) {
	fmt.Fprintf(cmd.ErrOrStderr(), "[%s] Resuming %s (command %s)...\n",
		record.AgentID, record.CommandType, record.CommandID)

	final, err := service.Resume(ctx, record, 0)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] Error: %v\n", record.AgentID, err)
		return
	}

	if final.Status.IsSuccess() {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s completed successfully.\n", record.AgentID, record.CommandType)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s finished with status %s.\n", record.AgentID, record.CommandType, final.Status)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
