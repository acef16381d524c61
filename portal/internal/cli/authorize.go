package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"guest-portal/portal/internal/controller"
)

type authorizeOptions struct {
	MAC     string
	Minutes int
}

func NewAuthorizeCommand() *cobra.Command {
	opts := &authorizeOptions{}

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Authorize one device on the controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			minutes := opts.Minutes
			if minutes <= 0 {
				minutes = env.GuestMinutes
			}

			ctx := cmd.Context()
			client := controller.New(env.Controller(), controller.WithLogger(logger.Named("controller")))
			if !client.TestConnection(ctx) {
				return errUnreachable
			}
			if !client.Login(ctx) {
				return errLoginFailed
			}
			mac := controller.NormalizeMAC(opts.MAC)
			if !client.AuthorizeGuest(ctx, mac, minutes) {
				return errAuthzRefused
			}
			fmt.Fprintf(cmd.OutOrStdout(), "authorized %s for %d minutes\n", mac, minutes)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.MAC, "mac", "", "device MAC address")
	cmd.Flags().IntVar(&opts.Minutes, "minutes", 0, "authorization duration in minutes (defaults to PORTAL_GUEST_MINUTES)")
	cmd.MarkFlagRequired("mac")

	return cmd
}
