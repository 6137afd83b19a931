// Package observability exposes Prometheus metrics for the achievement
// engine: occurrence handling, unlock outcomes, and registry health.
// Served at /metrics when enabled in config.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Occurrence Metrics ─────────────────────────────────────────────────────

// EventsHandled counts event occurrences that reached the engine handler.
var EventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "laurels",
	Subsystem: "engine",
	Name:      "events_handled_total",
	Help:      "Total event occurrences handled, by event name.",
}, []string{"event"})

// OccurrencesDiscarded counts occurrences dropped before matching.
var OccurrencesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "laurels",
	Subsystem: "engine",
	Name:      "occurrences_discarded_total",
	Help:      "Occurrences discarded before achievement matching (no_actor, vetoed).",
}, []string{"reason"})

// CandidatesSkipped counts per-candidate skips during matching.
var CandidatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "laurels",
	Subsystem: "engine",
	Name:      "candidates_skipped_total",
	Help:      "Candidate achievements skipped (not_found, unpublished, already_unlocked, vetoed).",
}, []string{"reason"})

// ─── Unlock Metrics ─────────────────────────────────────────────────────────

// Unlocks counts achievements transitioned to unlocked.
var Unlocks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "laurels",
	Subsystem: "engine",
	Name:      "unlocks_total",
	Help:      "Total achievement unlocks.",
})

// PointsAwarded counts points credited to user scores.
var PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "laurels",
	Subsystem: "engine",
	Name:      "points_awarded_total",
	Help:      "Total points added to user scores by unlocks.",
})

// StoreWriteFailures counts failed progress or score writes. These surface to
// the caller — a lost unlock is a correctness defect, not a soft error.
var StoreWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "laurels",
	Subsystem: "engine",
	Name:      "store_write_failures_total",
	Help:      "Failed progress/score store writes during unlock processing.",
})

// ─── Registry Metrics ───────────────────────────────────────────────────────

// RegistryRefreshes counts index rebuilds.
var RegistryRefreshes = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "laurels",
	Subsystem: "registry",
	Name:      "refreshes_total",
	Help:      "Total event registry rebuilds.",
})

// RegistryEvents tracks the number of distinct event names in the index.
var RegistryEvents = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "laurels",
	Subsystem: "registry",
	Name:      "events",
	Help:      "Distinct event names currently in the registry index.",
})

// BoundHandlers tracks event names with a live bus subscription.
var BoundHandlers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "laurels",
	Subsystem: "dispatcher",
	Name:      "bound_events",
	Help:      "Event names with the engine handler currently bound.",
})
