package agent

import (
	"context"
	"fmt"
	"text/tabwriter"

	"benlowery/agentctl/internal/util"

	"github.com/spf13/cobra"
)

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <agent-id>",
		Short: "Show details for a single agent",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			agentID := args[0]
			if err := util.ValidateAgentID(agentID); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return
			}

			client, err := connect()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return
			}

			agent, err := client.GetAgent(context.Background(), agentID)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error fetching agent: %v\n", err)
				return
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID:\t%s\n", agent.ID)
			fmt.Fprintf(w, "Name:\t%s\n", agent.Name)
			fmt.Fprintf(w, "Hostname:\t%s\n", agent.Hostname)
			fmt.Fprintf(w, "Status:\t%s\n", agent.Status)
			fmt.Fprintf(w, "Platform:\t%s\n", agent.Platform)
			fmt.Fprintf(w, "Version:\t%s\n", agent.Version)
			fmt.Fprintf(w, "Last seen:\t%s\n", formatLastSeen(agent.LastSeen))
			w.Flush()
		},
	}

	return cmd
}
