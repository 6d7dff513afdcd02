package core

// Notification is an outbound reply to be delivered to a chat.
type Notification struct {
	ID     string
	ChatID int64
	Text   string
}
