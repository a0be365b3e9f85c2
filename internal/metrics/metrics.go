package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tixify_checkouts_total",
			Help: "Checkouts by outcome",
		},
		[]string{"outcome"},
	)

	checkoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tixify_checkout_duration_seconds",
			Help:    "Duration of checkout requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	ticketsSold = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tixify_tickets_sold_total",
			Help: "Ticket units sold per event",
		},
		[]string{"event_id"},
	)

	inventoryRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tixify_inventory_rejections_total",
			Help: "Line items refused for lack of inventory",
		},
		[]string{"source"},
	)

	checkIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tixify_checkins_total",
			Help: "Scan, check-in and undo results",
		},
		[]string{"action", "result"},
	)

	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tixify_issuance_deliveries_total",
			Help: "Ticket e-mail deliveries by outcome",
		},
		[]string{"outcome"},
	)

	activeWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tixify_active_workers",
			Help: "Running background workers",
		},
		[]string{"worker"},
	)
)

const (
	OutcomeSuccess  = "success"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

func ObserveCheckout(outcome string, elapsed time.Duration) {
	checkouts.WithLabelValues(outcome).Inc()
	checkoutDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func AddTicketsSold(eventID string, quantity int) {
	ticketsSold.WithLabelValues(eventID).Add(float64(quantity))
}

// TrackInventoryRejection source is "gate" for Redis or "ledger" for Postgres.
func TrackInventoryRejection(source string) {
	inventoryRejections.WithLabelValues(source).Inc()
}

func TrackCheckIn(action, result string) {
	checkIns.WithLabelValues(action, result).Inc()
}

func TrackDelivery(outcome string) {
	deliveries.WithLabelValues(outcome).Inc()
}

func WorkerStarted(name string) {
	activeWorkers.WithLabelValues(name).Inc()
}

func WorkerStopped(name string) {
	activeWorkers.WithLabelValues(name).Dec()
}
