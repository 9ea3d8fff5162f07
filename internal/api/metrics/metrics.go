// Package metrics defines and registers all custom Prometheus metrics
// for authd. It is the single source of truth for metric names, labels,
// and help strings; metrics register with the default registry at
// package load via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authd"

// ── Auth flow metrics ────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Labels:
//   - outcome: "success", "rejected", or "throttled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts account registrations by outcome.
// Labels:
//   - outcome: "created", "rejected", or "disabled"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Event outbox metrics ─────────────────────────────────────────────

// AuthEventsTotal counts domain events handled by the telemetry consumer.
// Labels:
//   - kind: the event kind (e.g. "user_created")
//   - source: the guard or flow that produced it (e.g. "keycloak")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of auth domain events consumed.",
	},
	[]string{"kind", "source"},
)

// EventsDroppedTotal counts events dropped because a worker queue was full.
// Labels:
//   - kind: the event kind
var EventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of auth domain events dropped at publish.",
	},
	[]string{"kind"},
)

// ── Access control metrics ───────────────────────────────────────────

// AccessDecisionsTotal counts client-access resolutions.
// Labels:
//   - decision: "granted" or "denied"
//   - via: "api-key", "global-admin", "owner", "membership", or "none"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of client access decisions, by outcome and path.",
	},
	[]string{"decision", "via"},
)
