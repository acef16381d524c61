package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"guest-portal/portal/internal/config"
	"guest-portal/portal/internal/logging"
)

// NewRootCommand wires the portal sub-commands. Controller flags are shared by every
// sub-command and override the environment.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Captive portal that authorizes guests on a wireless controller",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.String("controller-url", "", "controller base URL (UNIFI_BASE_URL)")
	flags.String("site", "", "controller site (UNIFI_SITE)")
	flags.Bool("insecure-skip-verify", true, "skip controller TLS certificate verification (UNIFI_INSECURE_SKIP_VERIFY)")
	flags.String("log-level", "", "log level: debug, info, warn, error (LOG_LEVEL)")

	root.AddCommand(
		NewServeCommand(),
		NewProbeCommand(),
		NewAuthorizeCommand(),
	)
	return root
}

// setup loads configuration and builds the logger for a sub-command.
func setup(cmd *cobra.Command) (config.Env, *zap.Logger, error) {
	config.LoadDotEnv()
	env, err := config.LoadEnv(cmd.Flags())
	if err != nil {
		return config.Env{}, nil, err
	}
	if err := env.Validate(); err != nil {
		return config.Env{}, nil, err
	}
	logger, err := logging.New(env.LogLevel, env.LogDevelopment)
	if err != nil {
		return config.Env{}, nil, err
	}
	if !env.HasControllerCredentials() {
		logger.Warn("controller credentials not configured; every controller login will fail",
			zap.String("username_env", config.EnvControllerUser),
			zap.String("password_env", config.EnvControllerPass))
	}
	if env.InsecureSkipVerify {
		logger.Warn("controller TLS certificate verification is disabled")
	}
	return env, logger, nil
}
