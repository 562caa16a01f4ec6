package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsStarted   prometheus.Counter
	RegistrationsCompleted prometheus.Counter
	Logins                 *prometheus.CounterVec
	VoiceDecisions         *prometheus.CounterVec
	TokensRevoked          prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voxid_registrations_started_total",
			Help: "Registration flows that issued an OTP",
		}),
		RegistrationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voxid_registrations_completed_total",
			Help: "Registrations that materialized an identity",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voxid_logins_total",
			Help: "Login attempts by method and outcome",
		}, []string{"method", "outcome"}),
		VoiceDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voxid_voice_decisions_total",
			Help: "Voice verification decisions",
		}, []string{"decision"}),
		TokensRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voxid_tokens_revoked_total",
			Help: "Tokens added to the revocation list",
		}),
	}
}
