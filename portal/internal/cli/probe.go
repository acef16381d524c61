package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"guest-portal/portal/internal/controller"
)

var (
	errUnreachable  = errors.New("cannot reach controller")
	errLoginFailed  = errors.New("controller login failed")
	errAuthzRefused = errors.New("controller refused the guest authorization")
)

func NewProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check reachability, login, clients and health against the controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			client := controller.New(env.Controller(), controller.WithLogger(logger.Named("controller")))

			if !client.TestConnection(ctx) {
				return errUnreachable
			}
			fmt.Fprintln(out, "controller reachable")

			if !client.Login(ctx) {
				return errLoginFailed
			}
			fmt.Fprintln(out, "logged in")

			clients := client.GetClients(ctx)
			guests := 0
			for _, c := range clients {
				if c.IsGuest {
					guests++
				}
			}
			fmt.Fprintf(out, "clients: %d (guests: %d)\n", len(clients), guests)

			health := client.Health(ctx)
			if health.Empty() {
				fmt.Fprintln(out, "health: not reported")
				return nil
			}
			for _, s := range health.Subsystems {
				fmt.Fprintf(out, "health %-6s %s\n", s.Subsystem, s.Status)
			}
			return nil
		},
	}
}
