package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/baalimago/go_away_boilerplate/pkg/shutdown"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdelaire/inferbot/internal/config"
	"github.com/jdelaire/inferbot/internal/logutil"
)

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:           "inferbot",
		Short:         "Telegram front-end for an HTTP inference service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return readConfig(v)
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error.")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json.")
	_ = v.BindPFlag(config.KeyConfigFile, cmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag(config.KeyLogLevel, cmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogFormat, cmd.PersistentFlags().Lookup("log-format"))

	cmd.AddCommand(newPollCmd(v))
	cmd.AddCommand(newWebhookCmd(v))
	cmd.AddCommand(newTokenCmd())

	return cmd
}

// readConfig merges the first .env found from the working directory upward
// and the optional --config file.
func readConfig(v *viper.Viper) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}
	if _, err := config.LoadEnvFile(v, wd); err != nil {
		return err
	}
	return config.ReadFile(v, v.GetString(config.KeyConfigFile))
}

// bootstrap loads the configuration for mode and builds the logger.
func bootstrap(v *viper.Viper, mode config.Mode) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v, mode)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := logutil.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("set up logging: %w", err)
	}
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() { shutdown.Monitor(cancel) }()
	return ctx, cancel
}
