package notify

import "context"

// Notifier delivers a rendered message to a specific recipient
type Notifier interface {
	// Send delivers a message to the specified recipient
	Send(ctx context.Context, recipient, subject, html string) error
	// Name returns the notifier type name (for logging)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}
