// ABOUTME: Prometheus metrics for the voice pipeline and echo service
// ABOUTME: Counters and gauges on a private registry, served over HTTP
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vaani"

var sessionStates = []string{"idle", "starting", "active", "ended"}

// Metrics contains the voice client metrics
type Metrics struct {
	registry *prometheus.Registry

	// Outbound
	ChunksSent   prometheus.Counter
	BytesSent    prometheus.Counter
	SendsSkipped prometheus.Counter

	// Inbound
	AudioChunks      prometheus.Counter
	SamplesReceived  prometheus.Counter
	MalformedPayload prometheus.Counter
	PlaybackDepth    prometheus.Gauge

	// Capture
	FramesCaptured prometheus.Gauge
	FramesDropped  prometheus.Gauge

	// Lifecycle
	SessionState *prometheus.GaugeVec
	Sessions     prometheus.Counter
}

// New creates all client metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		ChunksSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_sent_total",
			Help:      "Total number of audio chunks sent to the voice service",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pcm_bytes_sent_total",
			Help:      "Total PCM bytes sent before base64 encoding",
		}),
		SendsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_skipped_total",
			Help:      "Total number of chunks dropped because the channel was not open or the write failed",
		}),
		AudioChunks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_received_total",
			Help:      "Total number of audio payloads queued for playback",
		}),
		SamplesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_received_total",
			Help:      "Total number of decoded playback samples",
		}),
		MalformedPayload: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_payloads_total",
			Help:      "Total number of inbound audio payloads rejected as malformed",
		}),
		PlaybackDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playback_buffer_samples",
			Help:      "Samples waiting in the playback buffer",
		}),
		FramesCaptured: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capture_frames",
			Help:      "Capture frames handed to the framer in the current session",
		}),
		FramesDropped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capture_frames_dropped",
			Help:      "Capture frames dropped in the current session because the queue was full",
		}),
		SessionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current session state, 0 otherwise",
		}, []string{"state"}),
		Sessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of sessions started",
		}),
	}

	reg.MustRegister(collectors.NewGoCollector())

	for _, s := range sessionStates {
		m.SessionState.WithLabelValues(s).Set(0)
	}
	m.SessionState.WithLabelValues("idle").Set(1)

	return m
}

// Registry returns the registry holding these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ChunkSent records one outbound chunk
func (m *Metrics) ChunkSent(bytes int) {
	m.ChunksSent.Inc()
	m.BytesSent.Add(float64(bytes))
}

// SendSkipped records a chunk that was not delivered
func (m *Metrics) SendSkipped() {
	m.SendsSkipped.Inc()
}

// AudioReceived records one decoded inbound payload
func (m *Metrics) AudioReceived(samples int) {
	m.AudioChunks.Inc()
	m.SamplesReceived.Add(float64(samples))
}

// PayloadMalformed records a rejected inbound payload
func (m *Metrics) PayloadMalformed() {
	m.MalformedPayload.Inc()
}

// SetPlaybackDepth records the playback buffer depth
func (m *Metrics) SetPlaybackDepth(samples int) {
	m.PlaybackDepth.Set(float64(samples))
}

// CaptureStats records capture counters for the current session
func (m *Metrics) CaptureStats(captured, dropped int64) {
	m.FramesCaptured.Set(float64(captured))
	m.FramesDropped.Set(float64(dropped))
}

// StateChanged marks state as the current session state
func (m *Metrics) StateChanged(state string) {
	if state == "starting" {
		m.Sessions.Inc()
	}
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.SessionState.WithLabelValues(s).Set(v)
	}
}
