package ops

import (
	"context"
	"fmt"
	"strings"
)

// DefaultHelpText is the usage text shown by /help.
const DefaultHelpText = "Welcome! I'm here to help you shine. Need to book an appointment, " +
	"check our services, or get quick answers about your nail care? I've got you covered. " +
	"From gel polish to acrylics, manicures to pedicures, just ask and I'll make sure " +
	"you get the perfect nail experience. Your beauty, our passion! ✨"

// HelpOp replies with usage text and the list of commands.
type HelpOp struct {
	Text     string
	Mention  string
	Registry *Registry
}

func (h *HelpOp) Name() string        { return "help" }
func (h *HelpOp) Description() string { return "Show usage" }

func (h *HelpOp) Execute(_ context.Context, _ string) (string, error) {
	var b strings.Builder

	text := strings.TrimSpace(h.Text)
	if text == "" {
		text = DefaultHelpText
	}
	b.WriteString(text)
	b.WriteString("\n")

	if h.Mention != "" {
		fmt.Fprintf(&b, "\nIn group chats, mention %s followed by your question.\n", h.Mention)
	}

	if h.Registry != nil {
		if all := h.Registry.List(); len(all) > 0 {
			b.WriteString("\nCommands:\n")
			for _, op := range all {
				fmt.Fprintf(&b, "  /%s - %s\n", op.Name(), op.Description())
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
