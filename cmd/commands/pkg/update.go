package pkg

import (
	"fmt"

	"benlowery/agentctl/internal/services/dispatch"

	"github.com/spf13/cobra"
)

func UpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <package>",
		Short: "Update a package on the given agents",
		Long: `Update a software package to its latest (or a pinned) version.

Examples:
  agentctl pkg update openssl --agents web-1,web-2,db-1
  agentctl pkg update openssl --version 3.2.1 --agents db-1`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			version, _ := cmd.Flags().GetString("version")
			if args[0] == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error: package name is required")
				return
			}
			runBulk(cmd, dispatch.OpUpdate, dispatch.BulkParams{
				Package: args[0],
				Version: version,
			})
		},
	}

	cmd.Flags().String("version", "", "Specific package version to update to")

	return cmd
}
