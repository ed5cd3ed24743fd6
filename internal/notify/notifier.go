// Package notify delivers click notifications to operators.
package notify

import "context"

// Notifier sends a preformatted HTML message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every message. It is used when no channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
