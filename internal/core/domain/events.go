package domain

import "time"

// EventKind identifies a domain event emitted by the auth core.
type EventKind string

const (
	EventUserCreated       EventKind = "user_created"
	EventUserConfirmed     EventKind = "user_confirmed"
	EventUserLinked        EventKind = "user_linked"
	EventUserDeleted       EventKind = "user_deleted"
	EventPasswordReset     EventKind = "password_reset"
	EventMembershipAdded   EventKind = "membership_added"
	EventMembershipRemoved EventKind = "membership_removed"
)

// Event is a fire-and-forget record of something the auth core did.
// Consumers handle persistence and telemetry; a lost event never fails
// the operation that produced it.
type Event struct {
	Kind       EventKind
	UserID     string
	ClientID   string
	Source     string // which guard or flow produced the event
	OccurredAt time.Time
}
