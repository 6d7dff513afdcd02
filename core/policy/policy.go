package policy

import (
	"strings"

	"github.com/jdelaire/inferbot/core"
)

// Policy decides whether the bot should answer a message and what to ask.
// Direct chats are always answered. Group chats are answered only when the
// text contains the mention token.
type Policy struct {
	mention string
}

// New creates a Policy for the given mention token (e.g. "@my_bot").
func New(mentionToken string) *Policy {
	return &Policy{mention: strings.TrimSpace(mentionToken)}
}

// Mention returns the configured mention token.
func (p *Policy) Mention() string { return p.mention }

// Decide routes msg. It performs no I/O.
func (p *Policy) Decide(msg core.InboundMessage) core.Decision {
	if msg.ChatKind == core.ChatDirect {
		return core.RespondWith(msg.Text)
	}

	// An empty token would match every group message.
	if p.mention == "" || !strings.Contains(msg.Text, p.mention) {
		return core.Ignore
	}

	// Plain substring match: "@botsomething" is addressed to "@bot" and keeps
	// the token in the query because there is no "@bot " to strip.
	query := strings.Replace(msg.Text, p.mention+" ", "", 1)
	return core.RespondWith(strings.TrimSpace(query))
}

var _ core.RoutingPolicy = (*Policy)(nil)
