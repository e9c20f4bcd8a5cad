// Package metrics defines and registers all custom Prometheus metrics for the
// event pickup service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pickup"

// ── Dispatch metrics ──────────────────────────────────────────────────────────

// DispatchTotal counts dispatch requests by outcome.
// Label:
//   - result: "ok", "conflict", "invalid" or "error"
var DispatchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Total number of dispatch requests, by result.",
	},
	[]string{"result"},
)

// DispatchDuration measures plan computation plus notification of a dispatch.
var DispatchDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Duration of a dispatch from request to plan.",
		Buckets:   prometheus.DefBuckets,
	},
)

// PlanStops observes the number of stops in each computed plan.
var PlanStops = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "plan_stops",
		Help:      "Number of stops per computed dispatch plan.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification deliveries handed to a sink.
// Labels:
//   - kind: "commenced" or "approaching"
//   - result: "delivered" or "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notification deliveries, by kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Signal metrics ────────────────────────────────────────────────────────────

// SignalsProcessedTotal counts asynchronous signals applied successfully.
// Label:
//   - kind: "complete" or "cancel"
var SignalsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_processed_total",
		Help:      "Total number of pickup signals successfully processed.",
	},
	[]string{"kind"},
)

// SignalsErrorsTotal counts signals that failed processing.
// Label:
//   - reason: "not_found", "invalid_transition", "invalid" or "error"
var SignalsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_errors_total",
		Help:      "Total number of pickup signals that failed processing.",
	},
	[]string{"reason"},
)

// SignalQueueDepth tracks the number of signals waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var SignalQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "signal_queue_depth",
		Help:      "Current number of signals pending in each worker channel.",
	},
	[]string{"worker_id"},
)
