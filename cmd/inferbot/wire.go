package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	inference "github.com/jdelaire/inferbot/adapters/inference_client"
	"github.com/jdelaire/inferbot/adapters/telegram_receiver"
	"github.com/jdelaire/inferbot/core"
	"github.com/jdelaire/inferbot/core/ops"
	"github.com/jdelaire/inferbot/core/policy"
	"github.com/jdelaire/inferbot/internal/config"
)

// botHTTPTimeout bounds every Bot API call and must outlast a long poll.
const botHTTPTimeout = (telegram_receiver.LongPollTimeout + 15) * time.Second

// newBot connects to the Bot API. The token is checked with getMe.
func newBot(cfg config.Config, logger *slog.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, cfg.BotAPIEndpoint(), &http.Client{Timeout: botHTTPTimeout})
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	if !strings.EqualFold(bot.Self.UserName, cfg.BotUsername) {
		logger.Warn("configured username differs from the bot account",
			"configured", cfg.BotUsername, "account", bot.Self.UserName)
	}
	return bot, nil
}

// newDispatcher assembles the ops, routing policy and inference client behind
// one dispatcher replying through notifier.
func newDispatcher(cfg config.Config, notifier core.Notifier, logger *slog.Logger) (*core.Dispatcher, error) {
	pol := policy.New(cfg.MentionToken())

	reg := ops.NewRegistry()
	if err := reg.Register(&ops.StartOp{Greeting: cfg.Greeting}); err != nil {
		return nil, fmt.Errorf("register start: %w", err)
	}
	if err := reg.Register(&ops.HelpOp{Text: cfg.HelpText, Mention: pol.Mention(), Registry: reg}); err != nil {
		return nil, fmt.Errorf("register help: %w", err)
	}

	inf := inference.New(cfg.InferenceURL, cfg.InferenceToken, cfg.InferenceTimeout)

	return core.NewDispatcher(cfg.BotUsername, reg, pol, inf, notifier, logger), nil
}
