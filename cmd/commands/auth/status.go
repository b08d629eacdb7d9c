package auth

import (
	"errors"
	"fmt"
	"strings"

	"benlowery/agentctl/internal/services/auth"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [profile...]",
		Short: "Show authentication status",
		Long: `Show which console profiles have stored API tokens.

Without arguments, only the default profile is checked.

Example:
  agentctl auth status
  agentctl auth status default staging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := auth.DefaultStore()

			profiles := args
			if len(profiles) == 0 {
				profiles = []string{auth.DefaultProfile}
			}

			for _, profile := range profiles {
				profile = strings.TrimSpace(profile)
				_, err := store.GetToken(profile)
				switch {
				case err == nil:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: logged in\n", profile)
				case errors.Is(err, auth.ErrTokenNotFound):
					fmt.Fprintf(cmd.OutOrStdout(), "%s: not logged in\n", profile)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: error (%v)\n", profile, err)
				}
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
