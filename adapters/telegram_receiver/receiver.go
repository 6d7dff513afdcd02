package telegram_receiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jdelaire/inferbot/core"
)

const (
	// LongPollTimeout is the getUpdates timeout in seconds. The bot's HTTP
	// client timeout must exceed it.
	LongPollTimeout = 30
	errorBackoff    = 5 * time.Second
)

// Receiver long-polls Telegram for updates and hands them, one at a time, to
// the update handler.
type Receiver struct {
	bot     *tgbotapi.BotAPI
	handler core.UpdateHandler
	logger  *slog.Logger
	timeout int
	backoff time.Duration
	offset  int
}

// New creates a Telegram receiver polling through bot.
func New(bot *tgbotapi.BotAPI, handler core.UpdateHandler, logger *slog.Logger) *Receiver {
	return &Receiver{
		bot:     bot,
		handler: handler,
		logger:  logger,
		timeout: LongPollTimeout,
		backoff: errorBackoff,
	}
}

// WithTimeout overrides the long-poll timeout, in seconds.
func (r *Receiver) WithTimeout(seconds int) *Receiver {
	r.timeout = seconds
	return r
}

// WithBackoff overrides the delay after a failed poll.
func (r *Receiver) WithBackoff(d time.Duration) *Receiver {
	r.backoff = d
	return r
}

// Start begins the long-poll loop. Blocks until ctx is cancelled.
func (r *Receiver) Start(ctx context.Context) error {
	r.logger.Info("telegram receiver started", "bot", r.bot.Self.UserName)
	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("telegram receiver stopped")
			return nil
		}

		updates, err := r.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info("telegram receiver stopped")
				return nil
			}
			r.logger.Error("poll error", "error", err)
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		// Updates are handled strictly in order; the offset moves past every
		// update, including ones the dispatcher drops.
		for _, u := range updates {
			res := r.handler(ctx, u)
			r.logger.Debug("update handled", "update_id", u.UpdateID, "result", res.String())
			r.offset = u.UpdateID + 1
		}
	}
}

type pollResult struct {
	updates []tgbotapi.Update
	err     error
}

// poll runs one getUpdates call. The client takes no context, so the call runs
// in its own goroutine and is abandoned on cancellation; its updates are
// redelivered because the offset was not advanced.
func (r *Receiver) poll(ctx context.Context) ([]tgbotapi.Update, error) {
	cfg := tgbotapi.NewUpdate(r.offset)
	cfg.Timeout = r.timeout

	done := make(chan pollResult, 1)
	go func() {
		updates, err := r.bot.GetUpdates(cfg)
		done <- pollResult{updates: updates, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("get updates: %w", res.err)
		}
		return res.updates, nil
	}
}

var _ core.Receiver = (*Receiver)(nil)
