// Package metrics exposes Prometheus collectors for the sign-in flow.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	challengesTotal     *prometheus.CounterVec
	callbacksTotal      *prometheus.CounterVec
	backchannelDuration *prometheus.HistogramVec
)

func ensureRegistered(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		challengesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signon_challenges_total",
			Help: "Authorization redirects issued, by authentication type",
		}, []string{"auth_type"})

		callbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signon_callbacks_total",
			Help: "Callback outcomes, by authentication type and outcome",
		}, []string{"auth_type", "outcome"}) // outcome: succeeded|failed|cancelled

		backchannelDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signon_backchannel_duration_seconds",
			Help:    "Latency of backchannel calls to the identity provider",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}) // call: token|profile

		reg.MustRegister(challengesTotal, callbacksTotal, backchannelDuration)
	})
}

// Register wires the collectors into reg (DefaultRegisterer when nil) and
// returns the handler for /metrics. Idempotent.
func Register(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ensureRegistered(reg)
	return promhttp.Handler()
}

// ObserveChallenge counts one issued authorization redirect.
func ObserveChallenge(authType string) {
	ensureRegistered(prometheus.DefaultRegisterer)
	challengesTotal.WithLabelValues(authType).Inc()
}

// ObserveCallback counts one terminal callback outcome.
func ObserveCallback(authType, outcome string) {
	ensureRegistered(prometheus.DefaultRegisterer)
	callbacksTotal.WithLabelValues(authType, outcome).Inc()
}

// ObserveBackchannel records the latency of a token or profile call.
func ObserveBackchannel(call string, d time.Duration) {
	ensureRegistered(prometheus.DefaultRegisterer)
	backchannelDuration.WithLabelValues(call).Observe(d.Seconds())
}
