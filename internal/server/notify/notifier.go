// Package notify delivers best-effort notifications to workflow parties.
// Delivery failures are logged by callers and never affect workflow state.
package notify

import "context"

// Notifier sends a rendered message to a recipient. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, senderName, body, recipientEmail string) error
}
