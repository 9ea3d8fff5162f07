package ports

import "github.com/tenantgrid/authd/internal/core/domain"

// EventPublisher fans domain events out to the telemetry consumer.
// Publish never blocks and never fails the caller; a full queue drops
// the event.
type EventPublisher interface {
	Publish(event domain.Event)
}
