package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdelaire/inferbot/adapters/telegram_notifier"
	"github.com/jdelaire/inferbot/adapters/telegram_receiver"
	"github.com/jdelaire/inferbot/internal/config"
)

func newPollCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Receive updates by long polling getUpdates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(v, config.ModePoll)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runPoll(ctx, cfg, logger)
		},
	}
}

func runPoll(ctx context.Context, cfg config.Config, logger *slog.Logger) (err error) {
	defer func() {
		if err != nil {
			logger.Error("bot stopped", "mode", string(config.ModePoll), "error", err)
		}
	}()

	bot, err := newBot(cfg, logger)
	if err != nil {
		return err
	}
	notifier := telegram_notifier.New(bot)
	d, err := newDispatcher(cfg, notifier, logger)
	if err != nil {
		return err
	}

	// getUpdates is refused while a webhook is registered.
	if err := notifier.DeleteWebhook(ctx); err != nil {
		logger.Warn("delete webhook failed", "error", err)
	}

	logger.Info("starting bot", "mode", string(config.ModePoll), "username", bot.Self.UserName)
	return telegram_receiver.New(bot, d.HandleUpdate, logger).Start(ctx)
}
