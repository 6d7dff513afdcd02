package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// MaxUpdateBytes bounds the size of a single webhook update body.
const MaxUpdateBytes = 1 << 20

// ErrMalformedUpdate is returned when an update body is not a valid Telegram update.
var ErrMalformedUpdate = errors.New("malformed update")

// DecodeUpdate parses a webhook body using the Telegram update schema.
func DecodeUpdate(body []byte) (tgbotapi.Update, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return tgbotapi.Update{}, fmt.Errorf("%w: empty body", ErrMalformedUpdate)
	}
	if len(trimmed) > MaxUpdateBytes {
		return tgbotapi.Update{}, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedUpdate, MaxUpdateBytes)
	}
	if trimmed[0] != '{' {
		return tgbotapi.Update{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedUpdate)
	}

	var u tgbotapi.Update
	if err := json.Unmarshal(trimmed, &u); err != nil {
		return tgbotapi.Update{}, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}
	if u.UpdateID <= 0 {
		return tgbotapi.Update{}, fmt.Errorf("%w: missing update_id", ErrMalformedUpdate)
	}
	return u, nil
}

// Normalize converts a Telegram update into an InboundMessage. It reports false
// for updates that carry no text message (service messages, edits, media).
func Normalize(u tgbotapi.Update) (InboundMessage, bool) {
	m := u.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return InboundMessage{}, false
	}

	var userID int64
	if m.From != nil {
		userID = m.From.ID
	}

	msg := InboundMessage{
		UpdateID:  int64(u.UpdateID),
		ChatID:    m.Chat.ID,
		UserID:    userID,
		ChatKind:  chatKind(m.Chat),
		Text:      m.Text,
		Timestamp: m.Time(),
		TraceID:   uuid.NewString(),
	}

	if isCommand(m) {
		msg.Command = strings.ToLower(m.Command())
		if _, target, ok := strings.Cut(m.CommandWithAt(), "@"); ok {
			msg.CommandTarget = target
		}
		msg.CommandArgs = strings.TrimSpace(m.CommandArguments())
	}
	return msg, true
}

// chatKind maps Telegram chat types. Anything that is not a private chat is
// shared with other members and needs an explicit mention.
func chatKind(c *tgbotapi.Chat) ChatKind {
	if c.IsPrivate() {
		return ChatDirect
	}
	return ChatGroup
}

// isCommand reports whether m starts with a bot_command entity whose bounds
// fit the text. Entities from a webhook body are not trusted.
func isCommand(m *tgbotapi.Message) bool {
	if !m.IsCommand() {
		return false
	}
	l := m.Entities[0].Length
	return l >= 1 && l <= len(m.Text)
}
