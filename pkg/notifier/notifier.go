package notifier

import "context"

// Notifier defines the fire-and-forget notification capability consumed by
// the engine. Delivery failures must never roll back or delay the financial
// transaction that produced the event; callers log and move on.
type Notifier interface {
	// Notify dispatches one event to a recipient.
	Notify(ctx context.Context, kind, recipientID string, payload map[string]string) error
}

// Noop is a Notifier that does nothing.
type Noop struct{}

// Notify does nothing.
func (Noop) Notify(ctx context.Context, kind, recipientID string, payload map[string]string) error {
	return nil
}
