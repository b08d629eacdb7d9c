package agent

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

// NewCommand returns the "agent" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect registered agents",
		Long:  `List and inspect the agents registered with the console.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())

	return cmd
}
