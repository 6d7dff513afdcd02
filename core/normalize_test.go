package core

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestDecodeUpdate_Valid(t *testing.T) {
	body := []byte(`{
		"update_id": 100,
		"message": {
			"message_id": 7,
			"from": {"id": 42, "is_bot": false, "first_name": "Ana"},
			"chat": {"id": -1001, "type": "supergroup", "title": "Salon"},
			"date": 1700000000,
			"text": "@bot hi",
			"some_future_field": true
		}
	}`)

	u, err := DecodeUpdate(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.UpdateID != 100 {
		t.Errorf("update_id = %d, want 100", u.UpdateID)
	}
	if u.Message == nil || u.Message.Text != "@bot hi" {
		t.Fatalf("message = %+v", u.Message)
	}
}

func TestDecodeUpdate_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":           ``,
		"whitespace":      "  \n",
		"truncated":       `{"update_id": 1, "message": {`,
		"array":           `[{"update_id": 1}]`,
		"null":            `null`,
		"string":          `"hello"`,
		"wrong type":      `{"update_id": "one"}`,
		"missing id":      `{"message": {"text": "hi", "chat": {"id": 1, "type": "private"}}}`,
		"negative id":     `{"update_id": -5}`,
		"chat not object": `{"update_id": 1, "message": {"chat": 5}}`,
	}

	for name, body := range tests {
		_, err := DecodeUpdate([]byte(body))
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !errors.Is(err, ErrMalformedUpdate) {
			t.Errorf("%s: error %v does not wrap ErrMalformedUpdate", name, err)
		}
	}
}

func TestNormalize_Direct(t *testing.T) {
	u := tgbotapi.Update{
		UpdateID: 5,
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: 42},
			Chat:      &tgbotapi.Chat{ID: 123, Type: "private"},
			Date:      1700000000,
			Text:      "What are your hours?",
		},
	}

	msg, ok := Normalize(u)
	if !ok {
		t.Fatal("expected message, got drop")
	}
	if msg.UpdateID != 5 || msg.ChatID != 123 || msg.UserID != 42 {
		t.Errorf("ids = %d/%d/%d", msg.UpdateID, msg.ChatID, msg.UserID)
	}
	if msg.ChatKind != ChatDirect {
		t.Errorf("kind = %v, want direct", msg.ChatKind)
	}
	if msg.Text != "What are your hours?" {
		t.Errorf("text = %q", msg.Text)
	}
	if !msg.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("timestamp = %v", msg.Timestamp)
	}
	if msg.TraceID == "" {
		t.Error("expected trace id")
	}
}

func TestNormalize_ChatKinds(t *testing.T) {
	tests := map[string]ChatKind{
		"private":    ChatDirect,
		"group":      ChatGroup,
		"supergroup": ChatGroup,
		"channel":    ChatGroup,
	}

	for chatType, want := range tests {
		msg, ok := Normalize(tgbotapi.Update{
			UpdateID: 1,
			Message:  &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1, Type: chatType}, Text: "x"},
		})
		if !ok {
			t.Fatalf("%s: dropped", chatType)
		}
		if msg.ChatKind != want {
			t.Errorf("%s: kind = %v, want %v", chatType, msg.ChatKind, want)
		}
	}
}

func TestNormalize_Drops(t *testing.T) {
	tests := map[string]tgbotapi.Update{
		"no message":   {UpdateID: 1},
		"no chat":      {UpdateID: 2, Message: &tgbotapi.Message{Text: "hi"}},
		"empty text":   {UpdateID: 3, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1, Type: "private"}}},
		"edited only":  {UpdateID: 4, EditedMessage: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hi"}},
		"channel post": {UpdateID: 5, ChannelPost: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hi"}},
	}

	for name, u := range tests {
		if _, ok := Normalize(u); ok {
			t.Errorf("%s: expected drop", name)
		}
	}
}

func TestNormalize_MissingSender(t *testing.T) {
	msg, ok := Normalize(tgbotapi.Update{
		UpdateID: 1,
		Message:  &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9, Type: "group"}, Text: "anon"},
	})
	if !ok {
		t.Fatal("expected message")
	}
	if msg.UserID != 0 {
		t.Errorf("userID = %d, want 0", msg.UserID)
	}
}

func TestNormalize_UniqueTraceIDs(t *testing.T) {
	u := tgbotapi.Update{
		UpdateID: 1,
		Message:  &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9, Type: "private"}, Text: "same"},
	}
	a, _ := Normalize(u)
	b, _ := Normalize(u)
	if a.TraceID == b.TraceID {
		t.Error("expected a fresh trace id per handling pass")
	}
}

func commandUpdate(text string, entityLen int) tgbotapi.Update {
	m := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 1, Type: "private"},
		Text: text,
		Date: 1700000000,
	}
	if entityLen >= 0 {
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: entityLen}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: m}
}

func TestNormalizeCommand(t *testing.T) {
	tests := []struct {
		text       string
		entityLen  int
		wantCmd    string
		wantTarget string
		wantArgs   string
	}{
		{"/start", 6, "start", "", ""},
		{"/echo hello world", 5, "echo", "", "hello world"},
		{"/start@mybot", 12, "start", "mybot", ""},
		{"/echo@mybot  hello ", 11, "echo", "mybot", "hello"},
		{"/START", 6, "start", "", ""},
		{"/start", -1, "", "", ""},        // no entity: plain text
		{"not a command", -1, "", "", ""}, // plain text
		{"/start", 40, "", "", ""},        // entity longer than the text
		{"/start", 0, "", "", ""},         // empty entity
	}

	for _, tt := range tests {
		msg, ok := Normalize(commandUpdate(tt.text, tt.entityLen))
		if !ok {
			t.Fatalf("%q: dropped", tt.text)
		}
		if msg.Command != tt.wantCmd || msg.CommandTarget != tt.wantTarget || msg.CommandArgs != tt.wantArgs {
			t.Errorf("%q (len %d) = (%q, %q, %q), want (%q, %q, %q)", tt.text, tt.entityLen,
				msg.Command, msg.CommandTarget, msg.CommandArgs, tt.wantCmd, tt.wantTarget, tt.wantArgs)
		}
		if msg.Text != tt.text {
			t.Errorf("%q: text rewritten to %q", tt.text, msg.Text)
		}
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	msg, ok := Normalize(commandUpdate("hi", -1))
	if !ok {
		t.Fatal("dropped")
	}
	if !msg.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("timestamp = %v", msg.Timestamp)
	}
}
