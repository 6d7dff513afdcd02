package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/jdelaire/inferbot/core/ops"
)

const (
	replyTimeout = 10 * time.Second
	textRoute    = "text"
	emptyAnswer  = "The assistant returned an empty response."
)

// Result is the terminal state of one handling pass.
type Result int

const (
	ResultDropped Result = iota // not a text message
	ResultIgnored               // not addressed to the bot
	ResultReplied
	ResultFailed // an error description was sent as the reply
)

func (r Result) String() string {
	switch r {
	case ResultDropped:
		return "dropped"
	case ResultIgnored:
		return "ignored"
	case ResultReplied:
		return "replied"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Dispatcher routes inbound messages to command ops or to the inference
// backend and sends the reply. It keeps no state between messages.
type Dispatcher struct {
	botName  string
	policy   RoutingPolicy
	inferer  Inferer
	notifier Notifier
	logger   *slog.Logger
	routes   *Routes
}

// NewDispatcher creates a Dispatcher. botUsername is the bot's handle with or
// without the leading "@"; it is used to accept "/cmd@botname" commands.
// Every op in opsReg gets a command route; free text is handled last.
func NewDispatcher(botUsername string, opsReg *ops.Registry, pol RoutingPolicy, inf Inferer, notifier Notifier, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		botName:  strings.TrimPrefix(strings.TrimSpace(botUsername), "@"),
		policy:   pol,
		inferer:  inf,
		notifier: notifier,
		logger:   logger,
		routes:   NewRoutes(),
	}

	for _, op := range opsReg.List() {
		// Names are unique in the ops registry, so Add cannot fail here.
		_ = d.routes.Add("/"+strings.ToLower(op.Name()), d.commandMatcher(op.Name()), d.opHandler(op))
	}
	_ = d.routes.Add(textRoute, isText, d.handleText)
	return d
}

// Routes exposes the dispatcher's route table.
func (d *Dispatcher) Routes() *Routes { return d.routes }

// HandleUpdate normalizes a raw update and handles it. It has the
// UpdateHandler shape so ingress adapters can call it directly.
func (d *Dispatcher) HandleUpdate(ctx context.Context, u tgbotapi.Update) Result {
	msg, ok := Normalize(u)
	if !ok {
		d.logger.Debug("update dropped", "update_id", u.UpdateID)
		return ResultDropped
	}
	return d.Handle(ctx, msg)
}

// Handle processes one message. Panics in handlers are recovered and reported
// to the chat; nothing escapes.
func (d *Dispatcher) Handle(ctx context.Context, msg InboundMessage) (res Result) {
	logger := d.messageLogger(msg)
	logger.Info("inbound message",
		"chat_kind", msg.ChatKind.String(),
		"user_id", msg.UserID,
		"text_len", len(msg.Text),
		"sent_at", msg.Timestamp,
	)
	logger.Debug("inbound text", "text", msg.Text)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "panic", r, "stack", string(debug.Stack()))
			d.replyGuarded(ctx, msg, fmt.Sprintf("An error occurred: %v", r))
			res = ResultFailed
		}
		logger.Debug("message handled", "result", res.String())
	}()

	name, handle, ok := d.routes.Match(msg)
	if !ok {
		logger.Debug("no route matched")
		return ResultIgnored
	}
	logger.Debug("route matched", "route", name)
	return handle(ctx, msg)
}

func (d *Dispatcher) handleText(ctx context.Context, msg InboundMessage) Result {
	logger := d.messageLogger(msg)

	decision := d.policy.Decide(msg)
	if !decision.Respond {
		logger.Debug("message not addressed to bot")
		return ResultIgnored
	}

	logger.Info("generating response", "query_len", len(decision.Query))
	out := d.inferer.Infer(ctx, decision.Query)
	if out.Failed() && ctx.Err() != nil {
		logger.Warn("inference abandoned", "error", out.Err)
		return ResultFailed
	}
	if out.Failed() {
		logger.Error("inference failed", "error", out.Err)
		d.reply(ctx, msg, out.Reply())
		return ResultFailed
	}

	answer := out.Reply()
	if strings.TrimSpace(answer) == "" {
		answer = emptyAnswer
	}
	logger.Info("response generated", "reply_len", len(answer))

	if err := d.reply(ctx, msg, answer); err != nil {
		return ResultFailed
	}
	return ResultReplied
}

func (d *Dispatcher) opHandler(op ops.Op) HandlerFunc {
	return func(ctx context.Context, msg InboundMessage) Result {
		result, err := op.Execute(ctx, msg.CommandArgs)
		if err != nil {
			d.messageLogger(msg).Error("op failed", "op", op.Name(), "error", err)
			d.reply(ctx, msg, fmt.Sprintf("Error running /%s: %s", op.Name(), err))
			return ResultFailed
		}

		if err := d.reply(ctx, msg, result); err != nil {
			return ResultFailed
		}
		return ResultReplied
	}
}

// commandMatcher accepts the command name with or without an @target. A
// command addressed to a different bot does not match.
func (d *Dispatcher) commandMatcher(name string) Matcher {
	name = strings.ToLower(name)
	return func(msg InboundMessage) bool {
		if msg.Command != name {
			return false
		}
		return msg.CommandTarget == "" || strings.EqualFold(msg.CommandTarget, d.botName)
	}
}

func isText(_ InboundMessage) bool { return true }

// reply sends text to the originating chat. Send errors are logged and
// returned but never panic.
func (d *Dispatcher) reply(ctx context.Context, msg InboundMessage, text string) error {
	n := Notification{
		ID:     uuid.NewString(),
		ChatID: msg.ChatID,
		Text:   text,
	}

	// The reply is still worth sending when the caller is shutting down.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancel()

	if err := d.notifier.Send(ctx, n); err != nil {
		d.messageLogger(msg).Error("failed to send response", "notification_id", n.ID, "error", err)
		return err
	}
	return nil
}

// replyGuarded is reply for the panic path: a panicking notifier is logged
// instead of escaping Handle.
func (d *Dispatcher) replyGuarded(ctx context.Context, msg InboundMessage, text string) {
	defer func() {
		if r := recover(); r != nil {
			d.messageLogger(msg).Error("failure reply panicked", "panic", r)
		}
	}()
	d.reply(ctx, msg, text)
}

func (d *Dispatcher) messageLogger(msg InboundMessage) *slog.Logger {
	return d.logger.With("trace_id", msg.TraceID, "update_id", msg.UpdateID, "chat_id", msg.ChatID)
}
