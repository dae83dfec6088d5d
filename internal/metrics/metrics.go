package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuauth_login_outcomes_total",
			Help: "Total number of OAuth callbacks by outcome",
		},
		[]string{"outcome"}, // success or the login error code
	)

	sessionChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuauth_session_checks_total",
			Help: "Total number of session cookie verifications by result",
		},
		[]string{"result"}, // valid, missing, invalid
	)

	providerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menuauth_provider_call_duration_seconds",
			Help:    "Duration of outbound identity provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"call", "status"},
	)
)

// LoginOutcome records the result of one callback
func LoginOutcome(outcome string) {
	loginOutcomesTotal.WithLabelValues(outcome).Inc()
}

// SessionCheck records the result of one session verification
func SessionCheck(result string) {
	sessionChecksTotal.WithLabelValues(result).Inc()
}

// ProviderCall records the latency of an outbound provider call
func ProviderCall(call string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	providerCallDuration.WithLabelValues(call, status).Observe(time.Since(start).Seconds())
}
