package fleet

import (
	"benlowery/agentctl/internal/console"
	"benlowery/agentctl/internal/domain"
	"benlowery/agentctl/internal/services/auth"

	"github.com/spf13/cobra"
)

// connect builds the console client. Declared as a variable so tests can
// substitute a fake console.
var connect = func() (domain.Console, error) {
	return console.Connect(auth.DefaultStore())
}

// NewCommand returns the "fleet" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Run fleet-wide operations",
		Long: `Run read-only operations across every agent registered with the console.

Fleet operations fan out with a small, fixed number of commands in flight
at once (see the "concurrency" config key), so the console API sees the
same load whether the fleet has ten agents or a thousand.`,
	}

	cmd.AddCommand(RefreshCommand())

	return cmd
}
