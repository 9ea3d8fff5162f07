// Package mail provides Mailer implementations. Real SMTP transport is
// a deployment concern; the log-backed mailer here covers development
// and tests.
package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer writes outbound mail to the log instead of delivering it.
// The body carries one-time codes, so it is logged at debug level only.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Msg("outbound mail")
	m.log.Debug().Str("body", body).Msg("outbound mail body")
	return nil
}
