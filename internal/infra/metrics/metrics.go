// Package metrics holds the process-wide Prometheus collectors. They register
// with the default registry and are served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "arcadeledger"

// EntriesSettled counts ledger entries that reached a terminal status, by kind and status.
var EntriesSettled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "entries_settled_total",
	Help:      "Ledger entries that reached a terminal status.",
}, []string{"kind", "status"})

// SettleRejected counts settlement attempts refused before any write, by reason.
var SettleRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "settle_rejected_total",
	Help:      "Settlement attempts rejected by validation.",
}, []string{"reason"})

var SettleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "settle_duration_seconds",
	Help:      "Time spent in a settling database transaction.",
	Buckets:   prometheus.DefBuckets,
})

var SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "game",
	Name:      "sessions_started_total",
	Help:      "Game sessions started.",
})

// SessionsEnded counts ended sessions by end reason.
var SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "game",
	Name:      "sessions_ended_total",
	Help:      "Game sessions ended, by reason.",
}, []string{"reason"})

var ReaperSweeps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reaper",
	Name:      "sweeps_total",
	Help:      "Inactivity sweeps run.",
})

var ReaperExpired = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reaper",
	Name:      "sessions_expired_total",
	Help:      "Sessions loss-settled for inactivity.",
})

var ReaperFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reaper",
	Name:      "failures_total",
	Help:      "Stale sessions the reaper failed to settle.",
})
