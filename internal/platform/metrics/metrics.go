// Package metrics registers the Prometheus instruments shared by the
// courtyard services. Handlers expose them on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks courtyard's operation counts and request durations.
type Metrics struct {
	AccountsCreated     prometheus.Counter
	AuthFailures        prometheus.Counter
	CommunitiesCreated  prometheus.Counter
	InvitationsAccepted prometheus.Counter
	PaymentsCreated     prometheus.Counter
	MessagesPosted      prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all courtyard metrics on the default registry.
// Call once per process.
func New() *Metrics {
	return &Metrics{
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtyard_accounts_created_total",
			Help: "Total number of resident accounts registered",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtyard_auth_failures_total",
			Help: "Total number of failed login attempts",
		}),
		CommunitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtyard_communities_created_total",
			Help: "Total number of communities created",
		}),
		InvitationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtyard_invitations_accepted_total",
			Help: "Total number of join requests accepted",
		}),
		PaymentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtyard_payments_created_total",
			Help: "Total number of payment requests created",
		}),
		MessagesPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "courtyard_messages_posted_total",
			Help: "Total number of board messages posted",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courtyard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request's duration. Call with time.Now()
// captured at the start of the request.
func (m *Metrics) ObserveRequest(route, status string, start time.Time) {
	m.RequestDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
}
