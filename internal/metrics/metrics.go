package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the portal's Prometheus instruments.
type Metrics struct {
	Logins               prometheus.Counter
	RegistrationsCreated prometheus.Counter
	RegistrationsSkipped prometheus.Counter
	ActiveSessions       prometheus.GaugeFunc
}

// New registers all metrics on the default registry. sessionCount is
// polled on scrape so the gauge never drifts from the store.
func New(sessionCount func() int) *Metrics {
	return &Metrics{
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sales_portal_logins_total",
			Help: "Total number of successful logins",
		}),
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sales_portal_registrations_created_total",
			Help: "Total number of registrations written",
		}),
		RegistrationsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sales_portal_registrations_skipped_total",
			Help: "Total number of already-registered events skipped in batches",
		}),
		ActiveSessions: promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sales_portal_active_sessions",
			Help: "Sessions currently held in memory",
		}, func() float64 {
			return float64(sessionCount())
		}),
	}
}
