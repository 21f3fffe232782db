// Package metrics defines all custom Prometheus metrics for the identity
// API. It is the single source of truth for metric names, labels, and help
// strings; promauto registers everything with the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "locked", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts successful account registrations.
// Label:
//   - source: "local" or the OAuth provider name (e.g. "google")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts created, by source.",
	},
	[]string{"source"},
)

// TokenRotationsTotal counts refresh-token rotations.
// Label:
//   - result: "success" or "rejected" (replayed, revoked, or invalid token)
var TokenRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rotations_total",
		Help:      "Total number of refresh-token rotation attempts, by result.",
	},
	[]string{"result"},
)

// OneTimeTokensIssuedTotal counts one-time tokens handed out.
// Label:
//   - purpose: "verification" or "password_reset"
var OneTimeTokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "onetime_tokens_issued_total",
		Help:      "Total number of one-time tokens issued, by purpose.",
	},
	[]string{"purpose"},
)

// PasswordResetsTotal counts completed password resets.
var PasswordResetsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of successfully completed password resets.",
	},
)

// MailDeliveriesTotal counts outbound mail attempts. Delivery is
// best-effort, so failures show up here rather than in response codes.
// Labels:
//   - kind: "verification" or "password_reset"
//   - result: "sent" or "failed"
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "Total number of outbound mail deliveries, by kind and result.",
	},
	[]string{"kind", "result"},
)
