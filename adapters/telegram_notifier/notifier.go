package telegram_notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jdelaire/inferbot/core"
)

// MaxMessageLen is Telegram's limit for a single message, in characters.
const MaxMessageLen = 4096

// Notifier sends replies and manages webhook registration via the Bot API.
type Notifier struct {
	bot *tgbotapi.BotAPI
}

// New creates a Telegram notifier on top of bot.
func New(bot *tgbotapi.BotAPI) *Notifier {
	return &Notifier{bot: bot}
}

// Send delivers notif.Text to notif.ChatID. Text longer than MaxMessageLen is
// sent as several consecutive messages. ctx is checked between chunks; each
// request is bounded by the bot's HTTP client timeout.
func (n *Notifier) Send(ctx context.Context, notif core.Notification) error {
	for _, chunk := range splitText(notif.Text, MaxMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := n.bot.Send(tgbotapi.NewMessage(notif.ChatID, chunk)); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// SetWebhook registers webhookURL as the bot's webhook. secret, when
// non-empty, is echoed by Telegram in the X-Telegram-Bot-Api-Secret-Token
// header.
func (n *Notifier) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// WebhookConfig in this client version has no secret_token field.
	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonEmpty("secret_token", secret)
	if _, err := n.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook removes any registered webhook so getUpdates can be used.
func (n *Notifier) DeleteWebhook(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// splitText cuts s into pieces of at most limit runes, preferring to break
// after a newline.
func splitText(s string, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

var _ core.Notifier = (*Notifier)(nil)
