// Package notify delivers new-document announcements to subscribed chats.
// Delivery runs in background goroutines behind a bounded worker pool, so a
// slow or failing chat never blocks the discovery cycle.
package notify

import "context"

// Messenger sends one formatted message to one chat.
//
// Implementations must be safe for concurrent use, respect context
// cancellation, and apply their own rate limiting. A returned error means
// the message was not delivered after the implementation's own retries.
type Messenger interface {
	Send(ctx context.Context, chatID string, text string) error
}
