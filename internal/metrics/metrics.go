// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	KeysGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qchat_keys_generated_total",
		Help: "Quantum keys generated across all sessions.",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qchat_messages_sent_total",
		Help: "Messages accepted on the send path.",
	})

	MessagesDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qchat_messages_destroyed_total",
		Help: "Messages redacted by self-destruct evaluation.",
	})

	AttacksSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qchat_attack_simulations_total",
		Help: "Interception simulations run.",
	})

	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qchat_ai_requests_total",
		Help: "Advisory AI calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	AILatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qchat_ai_request_duration_seconds",
		Help:    "Latency of advisory AI calls.",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
