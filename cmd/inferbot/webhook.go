package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdelaire/inferbot/adapters/telegram_notifier"
	"github.com/jdelaire/inferbot/adapters/telegram_webhook"
	"github.com/jdelaire/inferbot/internal/config"
)

func newWebhookCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Serve the Telegram webhook over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(v, config.ModeWebhook)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runWebhook(ctx, cfg, logger)
		},
	}

	cmd.Flags().Int("port", config.DefaultPort, "Listen port.")
	cmd.Flags().String("secret", "", "Expected X-Telegram-Bot-Api-Secret-Token value.")
	cmd.Flags().String("public-url", "", "Public https base URL; registers <url>/webhook with Telegram when set.")
	_ = v.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	_ = v.BindPFlag(config.KeyWebhookSecret, cmd.Flags().Lookup("secret"))
	_ = v.BindPFlag(config.KeyWebhookPublicURL, cmd.Flags().Lookup("public-url"))

	return cmd
}

func runWebhook(ctx context.Context, cfg config.Config, logger *slog.Logger) (err error) {
	defer func() {
		if err != nil {
			logger.Error("bot stopped", "mode", string(config.ModeWebhook), "error", err)
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

	if u := cfg.WebhookURL(telegram_webhook.DefaultPath); u != "" {
		if err := notifier.SetWebhook(ctx, u, cfg.WebhookSecret); err != nil {
			return fmt.Errorf("register webhook: %w", err)
		}
		logger.Info("webhook registered", "url", u)
	}

	srv := telegram_webhook.New(telegram_webhook.Config{
		Addr:   cfg.ListenAddr(),
		Secret: cfg.WebhookSecret,
	}, d.HandleUpdate, logger)

	logger.Info("starting bot", "mode", string(config.ModeWebhook), "username", bot.Self.UserName, "addr", cfg.ListenAddr())
	return srv.Start(ctx)
}
