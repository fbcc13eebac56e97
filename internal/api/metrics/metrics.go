// Package metrics defines and registers all custom Prometheus metrics for the
// identity service. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "bad_password", "locked", or "unknown_account"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts staged registrations.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registrations staged for verification.",
	},
)

// VerificationsTotal counts email verification attempts by outcome.
// Label:
//   - result: "success", "not_found", or "expired"
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Total number of email verification attempts, by outcome.",
	},
	[]string{"result"},
)

// RefreshRotationsTotal counts refresh-token rotation attempts by outcome.
// Label:
//   - result: "success", "bad_signature", "unknown", "stale", or "replayed"
var RefreshRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_rotations_total",
		Help:      "Total number of refresh-token rotation attempts, by outcome.",
	},
	[]string{"result"},
)

// FederatedLoginsTotal counts federated reconciliations by match branch.
// Label:
//   - branch: "linked", "email_link", or "created"
var FederatedLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "federated_logins_total",
		Help:      "Total number of federated identity reconciliations, by match branch.",
	},
	[]string{"branch"},
)

// ReaperSweepsTotal counts expiry reaper sweeps.
// Labels:
//   - store: "pending" or "tokens"
//   - result: "ok" or "error"
var ReaperSweepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reaper_sweeps_total",
		Help:      "Total number of expiry reaper sweeps, by store and result.",
	},
	[]string{"store", "result"},
)

// NotificationQueueDepth tracks pending notifications per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationsSentTotal counts notification delivery attempts.
// Labels:
//   - kind: notification template kind
//   - result: "ok" or "error"
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notification delivery attempts, by kind and result.",
	},
	[]string{"kind", "result"},
)
