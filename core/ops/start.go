package ops

import (
	"context"
	"strings"
)

// DefaultGreeting is the reply to /start.
const DefaultGreeting = "Hi, I'm Nail Shop Service assistant! How can I help you?"

// StartOp greets the user.
type StartOp struct {
	Greeting string
}

func (s *StartOp) Name() string        { return "start" }
func (s *StartOp) Description() string { return "Say hello" }

func (s *StartOp) Execute(_ context.Context, _ string) (string, error) {
	if g := strings.TrimSpace(s.Greeting); g != "" {
		return g, nil
	}
	return DefaultGreeting, nil
}
