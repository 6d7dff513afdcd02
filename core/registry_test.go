package core

import (
	"context"
	"strings"
	"testing"
)

func handlerReturning(r Result) HandlerFunc {
	return func(_ context.Context, _ InboundMessage) Result { return r }
}

func hasPrefix(p string) Matcher {
	return func(msg InboundMessage) bool { return strings.HasPrefix(msg.Text, p) }
}

func TestRoutes_FirstMatchWins(t *testing.T) {
	r := NewRoutes()
	r.Add("exact", hasPrefix("/start"), handlerReturning(ResultReplied))
	r.Add("slash", hasPrefix("/"), handlerReturning(ResultFailed))

	name, h, ok := r.Match(InboundMessage{Text: "/start"})
	if !ok {
		t.Fatal("expected a match")
	}
	if name != "exact" {
		t.Errorf("matched %q, want exact", name)
	}
	if got := h(context.Background(), InboundMessage{}); got != ResultReplied {
		t.Errorf("handler result = %v, want replied", got)
	}

	name, _, _ = r.Match(InboundMessage{Text: "/other"})
	if name != "slash" {
		t.Errorf("matched %q, want slash", name)
	}
}

func TestRoutes_NoMatch(t *testing.T) {
	r := NewRoutes()
	r.Add("slash", hasPrefix("/"), handlerReturning(ResultReplied))

	if _, _, ok := r.Match(InboundMessage{Text: "hello"}); ok {
		t.Error("expected no match")
	}
}

func TestRoutes_DuplicateName(t *testing.T) {
	r := NewRoutes()
	if err := r.Add("text", hasPrefix(""), handlerReturning(ResultReplied)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Add("text", hasPrefix(""), handlerReturning(ResultReplied)); err == nil {
		t.Fatal("expected error on duplicate route name")
	}
}

func TestRoutes_RequiresMatcherAndHandler(t *testing.T) {
	r := NewRoutes()
	if err := r.Add("nil-match", nil, handlerReturning(ResultReplied)); err == nil {
		t.Error("expected error for nil matcher")
	}
	if err := r.Add("nil-handler", hasPrefix(""), nil); err == nil {
		t.Error("expected error for nil handler")
	}
}

func TestRoutes_NamesInOrder(t *testing.T) {
	r := NewRoutes()
	r.Add("b", hasPrefix("b"), handlerReturning(ResultReplied))
	r.Add("a", hasPrefix("a"), handlerReturning(ResultReplied))

	names := r.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("names = %v, want [b a]", names)
	}
}
