package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MonitorPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solana_bridge_monitor_polls_total",
			Help: "Total number of monitor poll cycles",
		},
		[]string{"status"},
	)

	MonitorPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solana_bridge_monitor_poll_duration_seconds",
			Help:    "Duration of monitor poll cycles",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~41s
		},
	)

	MonitorEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solana_bridge_monitor_events_total",
			Help: "Total number of bridge events dispatched to handlers",
		},
		[]string{"event_type"},
	)

	MonitorHandlerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solana_bridge_monitor_handler_errors_total",
			Help: "Total number of handler failures",
		},
		[]string{"event_type"},
	)

	MonitorSkippedTransactionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "solana_bridge_monitor_skipped_transactions_total",
			Help: "Listed transactions skipped because the node could not return them",
		},
	)

	MonitorWatermarkSlot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "solana_bridge_monitor_watermark_slot",
			Help: "Slot of the newest signature processed by the monitor",
		},
	)

	BridgeActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solana_bridge_actions_total",
			Help: "Total number of bridge instructions submitted",
		},
		[]string{"action", "status"},
	)

	StatusPollAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "solana_bridge_status_poll_attempts_total",
			Help: "Total number of transaction status fetches",
		},
	)
)
