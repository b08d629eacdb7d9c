package cmd

import (
	"os"

	agentcmd "benlowery/agentctl/cmd/commands/agent"
	"benlowery/agentctl/cmd/commands/auth"
	cmdscmd "benlowery/agentctl/cmd/commands/cmds"
	cfgcmd "benlowery/agentctl/cmd/commands/config"
	"benlowery/agentctl/cmd/commands/fleet"
	pkgcmd "benlowery/agentctl/cmd/commands/pkg"
	"benlowery/agentctl/cmd/commands/run"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "agentctl",
		Short: "A CLI console for dispatching commands to remote agents",
		Long: `agentctl is a command-line console for managing a fleet of remote agents.
It dispatches imperative commands (diagnostics, package operations, status
snapshots) through the console API, waits for each command to reach a
terminal status, and reports per-target outcomes.

Agents may be offline when a command is dispatched; execution happens
out-of-band and agentctl polls the command record until it completes.

Quick start:
  agentctl config set api-url https://console.example.com
  agentctl auth login                   # Store your API token
  agentctl agent list                   # List registered agents
  agentctl run --agent dev-1 --type ping
  agentctl fleet refresh --security     # Fleet-wide security sweep`,
	}

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(agentcmd.NewCommand())
	cmd.AddCommand(run.NewCommand())
	cmd.AddCommand(cmdscmd.NewCommand())
	cmd.AddCommand(pkgcmd.NewCommand())
	cmd.AddCommand(fleet.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
