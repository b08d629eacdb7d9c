package pkg

import (
	"fmt"
	"time"

	"benlowery/agentctl/internal/services/dispatch"

	"github.com/spf13/cobra"
)

func PatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply pending OS patches on the given agents",
		Long: `Apply all pending operating system patches on one or more agents.

Use --at to defer execution to a maintenance window; the agents pick the
work up at the scheduled time and agentctl reports the dispatch outcome.

Examples:
  agentctl pkg patch --agents web-1,web-2
  agentctl pkg patch --agents db-1 --at 2026-09-01T02:00:00Z`,
		Args: cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			at, _ := cmd.Flags().GetString("at")

			params := dispatch.BulkParams{}
			if at != "" {
				scheduled, err := time.Parse(time.RFC3339, at)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: --at must be RFC 3339 (e.g. 2026-09-01T02:00:00Z), got %q\n", at)
					return
				}
				params.ScheduledAt = &scheduled
			}

			runBulk(cmd, dispatch.OpPatch, params)
		},
	}

	cmd.Flags().String("at", "", "Schedule execution at an RFC 3339 time")

	return cmd
}
