package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tenantgrid/authd/internal/api/metrics"
	"github.com/tenantgrid/authd/internal/core/domain"
)

// TelemetryConsumer records domain events as metrics and log lines.
type TelemetryConsumer struct {
	log zerolog.Logger
}

func NewTelemetryConsumer(log zerolog.Logger) *TelemetryConsumer {
	return &TelemetryConsumer{log: log}
}

func (t *TelemetryConsumer) Consume(_ context.Context, event domain.Event) error {
	metrics.AuthEventsTotal.WithLabelValues(string(event.Kind), event.Source).Inc()
	t.log.Info().
		Str("kind", string(event.Kind)).
		Str("user_id", event.UserID).
		Str("client_id", event.ClientID).
		Str("source", event.Source).
		Time("occurred_at", event.OccurredAt).
		Msg("auth event")
	return nil
}
