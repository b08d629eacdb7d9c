package fleet

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"benlowery/agentctl/internal/config"
	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/services/dispatch"
	"benlowery/agentctl/internal/swrcache"
	"benlowery/agentctl/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal is a variable so tests can force the plain (non-TUI) path.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func RefreshCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh status snapshots across the whole fleet",
		Long: `Dispatch a snapshot command to every registered agent and wait for the
results. By default agents report their security posture; pass --inventory
to collect installed-package inventories instead.

Only a few commands are in flight at once; set the "concurrency" config
key to change the cap.`,
		Run: func(cmd *cobra.Command, args []string) {
			security, _ := cmd.Flags().GetBool("security")
			inventory, _ := cmd.Flags().GetBool("inventory")
			noCache, _ := cmd.Flags().GetBool("no-cache")

			if security && inventory {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error: --security and --inventory are mutually exclusive")
				return
			}

			client, err := connect()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			agents, err := fetchDirectory(ctx, client, noCache)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error listing agents: %v\n", err)
				return
			}
			if len(agents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No agents registered.")
				return
			}

			service := dispatch.NewService(client)
			sweep := securitySweep
			if inventory {
				sweep = inventorySweep
			}

			results := runSweep(ctx, cmd, service, agents, sweep)
			printSweepSummary(cmd, results)
		},
	}

	cmd.Flags().Bool("security", false, "Collect security posture snapshots (default)")
	cmd.Flags().Bool("inventory", false, "Collect installed-package inventories")
	cmd.Flags().Bool("no-cache", false, "Bypass the local directory cache")

	return cmd
}

// directoryCache is a variable so tests can root the cache in a temp dir.
// A sweep dispatches commands to every listed agent, so it tolerates less
// directory staleness than a plain listing.
var directoryCache = func() *swrcache.Cache {
	return swrcache.WithTTLs(swrcache.DefaultDir(), 30*time.Second, 10*time.Minute)
}

func fetchDirectory(ctx context.Context, client domain.AgentDirectory, noCache bool) ([]domain.Agent, error) {
	cache := directoryCache()
	if noCache {
		_ = cache.Invalidate("agents")
		return client.ListAgents(ctx)
	}
	return swrcache.GetOrFetch(cache, ctx, "agents", client.ListAgents)
}

// sweepFunc runs one snapshot command against one agent and returns a short
// human-readable detail line.
type sweepFunc func(ctx context.Context, s *dispatch.Service, agentID string) (string, error)

func securitySweep(ctx context.Context, s *dispatch.Service, agentID string) (string, error) {
	outcome, err := dispatch.RunTyped[domain.SecurityStatus](ctx, s, agentID, "security_status", nil, 0)
	if err != nil {
		return "", err
	}
	if !outcome.Success {
		return "", fmt.Errorf("%s", outcome.Err)
	}
	if outcome.Data == nil {
		return "reported", nil
	}
	d := outcome.Data
	detail := fmt.Sprintf("firewall %s, antivirus %s, %d threats",
		onOff(d.FirewallEnabled), onOff(d.AntivirusEnabled), d.ThreatsFound)
	if d.PatchLevel != "" {
		detail += ", patch level " + d.PatchLevel
	}
	return detail, nil
}

func inventorySweep(ctx context.Context, s *dispatch.Service, agentID string) (string, error) {
	outcome, err := dispatch.RunTyped[domain.InventorySnapshot](ctx, s, agentID, "inventory_snapshot", nil, 0)
	if err != nil {
		return "", err
	}
	if !outcome.Success {
		return "", fmt.Errorf("%s", outcome.Err)
	}
	if outcome.Data == nil {
		return "reported", nil
	}
	d := outcome.Data
	detail := fmt.Sprintf("%d packages", d.PackageCount)
	if d.OS != "" {
		detail = d.OS + ", " + detail
	}
	if d.PendingReboot {
		detail += ", reboot pending"
	}
	return detail, nil
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

// runSweep fans the snapshot command across the fleet. On a terminal it
// drives the live progress view; otherwise each outcome prints as a plain
// line when it lands.
func runSweep(ctx context.Context, cmd *cobra.Command, service *dispatch.Service, agents []domain.Agent, sweep sweepFunc) []tui.RefreshResult {
	cfg, _ := config.Load()
	limit := 0
	if cfg != nil {
		limit = cfg.Concurrency
	}

	stream := make(chan tui.RefreshResult)
	collected := make([]tui.RefreshResult, 0, len(agents))

	go func() {
		defer close(stream)
		dispatch.ForEach(ctx, agents, limit, func(ctx context.Context, agent domain.Agent) (struct{}, error) {
			detail, err := sweep(ctx, service, agent.ID)
			res := tui.RefreshResult{AgentID: agent.ID, Success: err == nil, Detail: detail}
			if err != nil {
				res.Detail = err.Error()
			}
			stream <- res
			return struct{}{}, nil
		})
	}()

	if isTerminal() {
		model := tui.NewRefresh(len(agents), stream)
		program := tea.NewProgram(model)
		final, err := program.Run()
		if err == nil {
			if m, ok := final.(tui.RefreshModel); ok {
				collected = append(collected, m.Results()...)
				if m.Aborted() {
					fmt.Fprintln(cmd.ErrOrStderr(), "Stopped watching; commands already dispatched will still complete.")
				}
			}
		}
		// Drain anything the view did not consume before it quit.
		for res := range stream {
			collected = append(collected, res)
		}
		return collected
	}

	for res := range stream {
		mark := "ok"
		if !res.Success {
			mark = "FAIL"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s  %s\n", mark, res.AgentID, res.Detail)
		collected = append(collected, res)
	}
	return collected
}

func printSweepSummary(cmd *cobra.Command, results []tui.RefreshResult) {
	if len(results) == 0 {
		return
	}

	succeeded := 0
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "AGENT\tRESULT\tDETAIL")
	fmt.Fprintln(w, "-----\t------\t------")
	for _, res := range results {
		mark := "ok"
		if res.Success {
			succeeded++
		} else {
			mark = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.AgentID, mark, res.Detail)
	}
	w.Flush()

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d succeeded\n", succeeded, len(results))
}
