package core

import "context"

// Notifier delivers replies to a Telegram chat.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
