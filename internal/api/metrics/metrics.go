// Package metrics defines and registers all custom Prometheus metrics for the
// stream-admin auth service. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "streamadmin"

// LoginsTotal counts login calls by outcome.
// Labels:
//   - result: "success", "invalid_credentials", "locked", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionValidationsTotal counts per-request session checks.
// Label:
//   - result: "valid" or "invalid"
var SessionValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_validations_total",
		Help:      "Total number of session token validations, by result.",
	},
	[]string{"result"},
)

// AuditDroppedTotal counts activity entries dropped because the recorder
// buffer was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of activity-log entries dropped at enqueue.",
	},
)

// AuditWriteFailuresTotal counts activity entries whose storage write failed.
var AuditWriteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Total number of activity-log writes that failed in storage.",
	},
)

// SessionsPurgedTotal counts expired session rows removed by the janitor.
var SessionsPurgedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_purged_total",
		Help:      "Total number of expired session rows deleted by the janitor.",
	},
)
