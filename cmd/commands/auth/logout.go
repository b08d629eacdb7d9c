package auth

import (
	"errors"
	"fmt"
	"strings"

	"benlowery/agentctl/internal/services/auth"
	"benlowery/agentctl/internal/swrcache"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout [profile]",
		Short: "Remove a stored console API token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := auth.DefaultProfile
			if len(args) > 0 {
				profile = strings.TrimSpace(args[0])
			}

			store := auth.DefaultStore()
			err := store.DeleteToken(profile)
			if errors.Is(err, auth.ErrTokenNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no stored token\n", profile)
				return nil
			}
			if err != nil {
				return err
			}

			// The cached agent directory belongs to the signed-out session.
			_ = swrcache.NewDefault().Clear()

			fmt.Fprintf(cmd.OutOrStdout(), "Removed token for profile %s\n", profile)
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
