// Package metrics defines and registers all custom Prometheus metrics for the
// identity directory service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialization via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Invitation metrics ────────────────────────────────────────────────────────

// InvitesIssuedTotal counts invitations created or re-issued.
// Label:
//   - role: the role the invitee was assigned (e.g. "HR", "Employee")
var InvitesIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_issued_total",
		Help:      "Total number of invitations issued, by assigned role.",
	},
	[]string{"role"},
)

// InvitesRevokedTotal counts invitations revoked before activation, whether
// by an administrator or by OTP attempt exhaustion.
var InvitesRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_revoked_total",
		Help:      "Total number of invitations revoked before activation.",
	},
)

// ── Verification metrics ──────────────────────────────────────────────────────

// OTPVerificationsTotal counts OTP verification attempts.
// Labels:
//   - flow: "invite" or "login"
//   - result: "success", "invalid", "expired", or "locked"
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by flow and result.",
	},
	[]string{"flow", "result"},
)

// OTPChallengesStartedTotal counts SMS challenges started (codes issued),
// including resends after the cooldown.
// Label:
//   - flow: "invite" or "login"
var OTPChallengesStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_challenges_started_total",
		Help:      "Total number of SMS verification challenges started, by flow.",
	},
	[]string{"flow"},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// AccountsPurgedTotal counts accounts permanently removed by the retention
// purge.
var AccountsPurgedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_purged_total",
		Help:      "Total number of archived accounts purged after their retention window.",
	},
)

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreFailoversTotal counts operations rerouted from the primary store to
// the local fallback after an infrastructure failure.
// Label:
//   - op: repository operation name (e.g. "get_account", "put_invitation")
var StoreFailoversTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_failovers_total",
		Help:      "Total number of repository operations served by the fallback store.",
	},
	[]string{"op"},
)
