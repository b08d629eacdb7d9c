package pkg

import (
	"fmt"

	"benlowery/agentctl/internal/services/dispatch"

	"github.com/spf13/cobra"
)

func UninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <package>",
		Short: "Uninstall a package from the given agents",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if args[0] == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error: package name is required")
				return
			}
			runBulk(cmd, dispatch.OpUninstall, dispatch.BulkParams{
				Package: args[0],
			})
		},
	}

	return cmd
}
