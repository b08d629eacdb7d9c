package agent

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/swrcache"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered agents",
		Long: `List all agents registered with the console.

The directory is cached locally for a couple of minutes; use --no-cache
to force a fresh fetch.`,
		Run: func(cmd *cobra.Command, args []string) {
			client, err := connect()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return
			}

			noCache, _ := cmd.Flags().GetBool("no-cache")

			ctx := context.Background()
			agents, err := fetchDirectory(ctx, client, noCache)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error listing agents: %v\n", err)
				return
			}

			if len(agents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No agents registered.")
				return
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPLATFORM\tVERSION\tLAST SEEN")
			fmt.Fprintln(w, "--\t----\t------\t--------\t-------\t---------")

			for _, agent := range agents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					agent.ID,
					agent.Name,
					agent.Status,
					agent.Platform,
					agent.Version,
					formatLastSeen(agent.LastSeen),
				)
			}

			w.Flush()
		},
	}

	cmd.Flags().Bool("no-cache", false, "Bypass the local directory cache")

	return cmd
}

// directoryCache is a variable so tests can root the cache in a temp dir.
var directoryCache = func() *swrcache.Cache { return swrcache.NewDefault() }

// fetchDirectory returns the agent directory, served from the
// stale-while-revalidate cache unless noCache is set. Bypassing the cache
// also drops the stored entry so a later cached read cannot serve it.
func fetchDirectory(ctx context.Context, client domain.AgentDirectory, noCache bool) ([]domain.Agent, error) {
	cache := directoryCache()
	if noCache {
		_ = cache.Invalidate("agents")
		return client.ListAgents(ctx)
	}
	return swrcache.GetOrFetch(cache, ctx, "agents", client.ListAgents)
}

func formatLastSeen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t).Truncate(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}
