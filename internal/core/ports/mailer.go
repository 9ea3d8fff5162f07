package ports

import "context"

// Mailer delivers a message to a single recipient. Transport is a
// deployment concern; the auth core only needs this contract.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
