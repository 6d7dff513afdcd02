package core

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatKind classifies the chat a message arrived in.
type ChatKind int

const (
	ChatDirect ChatKind = iota
	ChatGroup
)

func (k ChatKind) String() string {
	switch k {
	case ChatDirect:
		return "direct"
	case ChatGroup:
		return "group"
	default:
		return "unknown"
	}
}

// InboundMessage represents a text message received from Telegram. Command,
// CommandTarget and CommandArgs are set when the message starts with a
// bot_command entity.
type InboundMessage struct {
	UpdateID      int64
	ChatID        int64
	UserID        int64
	ChatKind      ChatKind
	Text          string
	Command       string
	CommandTarget string
	CommandArgs   string
	Timestamp     time.Time
	TraceID       string
}

// UpdateHandler consumes a raw update from an ingress adapter and reports how
// it was handled.
type UpdateHandler func(ctx context.Context, u tgbotapi.Update) Result
