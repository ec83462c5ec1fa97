// ABOUTME: Prometheus metrics for the echo service
// ABOUTME: Tracks connections, inbound chunks and replies
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics contains the echo service metrics
type ServerMetrics struct {
	registry *prometheus.Registry

	Connections     prometheus.Gauge
	ChunksReceived  prometheus.Counter
	BytesReceived   prometheus.Counter
	InvalidMessages prometheus.Counter
	RepliesSent     prometheus.Counter
	TurnsEnded      prometheus.Counter
	ReplyLatency    prometheus.Histogram
}

// NewServer creates all echo service metrics on a fresh registry
func NewServer() *ServerMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &ServerMetrics{
		registry: reg,

		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "connections",
			Help:      "Current number of connected voice clients",
		}),
		ChunksReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "chunks_received_total",
			Help:      "Total number of realtime_input media chunks received",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "pcm_bytes_received_total",
			Help:      "Total decoded PCM bytes received",
		}),
		InvalidMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "invalid_messages_total",
			Help:      "Total number of messages that could not be parsed or decoded",
		}),
		RepliesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "replies_sent_total",
			Help:      "Total number of audio replies sent",
		}),
		TurnsEnded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "turns_ended_total",
			Help:      "Total number of endOfTurn messages sent",
		}),
		ReplyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "reply_latency_seconds",
			Help:      "Time from receiving a chunk to sending its reply",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
	}
}

// Registry returns the registry holding these metrics
func (m *ServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
