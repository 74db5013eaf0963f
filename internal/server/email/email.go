// Package email sends account lifecycle mail. Delivery failures are logged
// by callers and never fail the request that triggered them.
package email

import "context"

// Mailer delivers one plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
