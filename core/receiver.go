package core

import "context"

// Receiver obtains updates from Telegram and hands them to an UpdateHandler.
// Start blocks until ctx is cancelled.
type Receiver interface {
	Start(ctx context.Context) error
}
