package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeBooked     = "booked"
	OutcomeWaitlisted = "waitlisted"
	OutcomeRejected   = "rejected"
)

// Metrics holds the scheduling counters and transaction timings.
type Metrics struct {
	BookingsTotal             *prometheus.CounterVec
	WaitlistPromotionsTotal   prometheus.Counter
	SessionsGeneratedTotal    prometheus.Counter
	SessionCancellationsTotal prometheus.Counter
	TxDuration                *prometheus.HistogramVec
}

// New creates the metrics and registers them with registry. A nil registry
// leaves them unregistered, which tests use.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduling_bookings_total",
				Help: "Booking requests by outcome",
			},
			[]string{"outcome"},
		),
		WaitlistPromotionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scheduling_waitlist_promotions_total",
				Help: "Waitlisted bookings promoted to booked",
			},
		),
		SessionsGeneratedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scheduling_sessions_generated_total",
				Help: "Sessions created by the generator",
			},
		),
		SessionCancellationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scheduling_session_cancellations_total",
				Help: "Sessions moved to cancelled",
			},
		),
		TxDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scheduling_tx_duration_seconds",
				Help:    "Duration of scheduling transactions in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"operation"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.BookingsTotal,
			m.WaitlistPromotionsTotal,
			m.SessionsGeneratedTotal,
			m.SessionCancellationsTotal,
			m.TxDuration,
		)
	}
	return m
}

// ObserveTx returns a func that records the elapsed time for operation.
func (m *Metrics) ObserveTx(operation string) func() {
	timer := prometheus.NewTimer(m.TxDuration.WithLabelValues(operation))
	return func() { timer.ObserveDuration() }
}
