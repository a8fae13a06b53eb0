package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ledger outcomes and sweep runs.
type Metrics struct {
	PaymentsApplied     prometheus.Counter
	PaymentsRejected    *prometheus.CounterVec
	SponsorshipsExpired prometheus.Counter
	RemindersEmitted    prometheus.Counter
	SweepFailures       prometheus.Counter
	SweepDuration       prometheus.Histogram
	EventsDropped       prometheus.Counter
}

// New registers all ledger metrics on reg. Pass prometheus.DefaultRegisterer in
// cmd binaries and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PaymentsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "sponsorship_payments_applied_total",
			Help: "Total number of payments accepted by the ledger",
		}),
		PaymentsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorship_payments_rejected_total",
			Help: "Total number of payments rejected, by error code",
		}, []string{"reason"}),
		SponsorshipsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "sponsorships_expired_total",
			Help: "Total number of sponsorships moved to EXPIRED by the sweeper",
		}),
		RemindersEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sponsorship_reminders_total",
			Help: "Total number of payment-due-soon reminders emitted",
		}),
		SweepFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sponsorship_sweep_failures_total",
			Help: "Total number of sponsorships the sweeper failed to transition",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sponsorship_sweep_duration_seconds",
			Help:    "Duration of expiry sweeps",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "sponsorship_events_dropped_total",
			Help: "Total number of domain events dropped because the publish buffer was full",
		}),
	}
}

// IncrementRejected records a rejected payment under its error code.
func (m *Metrics) IncrementRejected(code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	m.PaymentsRejected.WithLabelValues(code).Inc()
}

// ObserveSweep records the duration of a sweep.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSweep(start time.Time) {
	m.SweepDuration.Observe(time.Since(start).Seconds())
}
