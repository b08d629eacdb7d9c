package pkg

import (
	"fmt"

	"benlowery/agentctl/internal/services/dispatch"

	"github.com/spf13/cobra"
)

func InstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <package>",
		Short: "Install a package on the given agents",
		Long: `Install a software package on one or more agents, one target at a time.

Examples:
  agentctl pkg install nginx --agents web-1,web-2
  agentctl pkg install nginx --version 1.24.0 --agents web-1 --yes`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			version, _ := cmd.Flags().GetString("version")
			if args[0] == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error: package name is required")
				return
			}
			runBulk(cmd, dispatch.OpInstall, dispatch.BulkParams{
				Package: args[0],
				Version: version,
			})
		},
	}

	cmd.Flags().String("version", "", "Specific package version to install")

	return cmd
}
