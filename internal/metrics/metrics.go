// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DrawsTotal counts successfully committed draws, redraws included.
	DrawsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amigo_draws_total",
		Help: "Number of draws committed successfully.",
	})

	// DrawFailuresTotal counts draws that failed while persisting.
	DrawFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amigo_draw_failures_total",
		Help: "Number of draws that failed to persist.",
	})

	// NotificationsDroppedTotal counts change-feed signals dropped because
	// a websocket client's send buffer was full.
	NotificationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amigo_notifications_dropped_total",
		Help: "Number of change notifications dropped for slow clients.",
	})
)
