// ABOUTME: Tests for Prometheus metrics
// ABOUTME: Checks counters, state gauges and the HTTP handler
package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/granthai/vaani-go/pkg/voice"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsImplementsVoiceMetrics(t *testing.T) {
	var _ voice.Metrics = (*Metrics)(nil)
}

func TestIndependentRegistries(t *testing.T) {
	// Each instance registers on its own registry, so this must not panic
	a := New()
	b := New()

	a.ChunkSent(100)
	if got := testutil.ToFloat64(b.ChunksSent); got != 0 {
		t.Errorf("expected registries to be independent, got %v", got)
	}
}

func TestChunkSent(t *testing.T) {
	m := New()
	m.ChunkSent(48000)
	m.ChunkSent(48000)

	if got := testutil.ToFloat64(m.ChunksSent); got != 2 {
		t.Errorf("expected 2 chunks, got %v", got)
	}
	if got := testutil.ToFloat64(m.BytesSent); got != 96000 {
		t.Errorf("expected 96000 bytes, got %v", got)
	}
}

func TestInboundCounters(t *testing.T) {
	m := New()
	m.AudioReceived(2400)
	m.PayloadMalformed()
	m.SendSkipped()
	m.SetPlaybackDepth(7200)
	m.CaptureStats(10, 2)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"audio chunks", testutil.ToFloat64(m.AudioChunks), 1},
		{"samples", testutil.ToFloat64(m.SamplesReceived), 2400},
		{"malformed", testutil.ToFloat64(m.MalformedPayload), 1},
		{"skipped", testutil.ToFloat64(m.SendsSkipped), 1},
		{"depth", testutil.ToFloat64(m.PlaybackDepth), 7200},
		{"captured", testutil.ToFloat64(m.FramesCaptured), 10},
		{"dropped", testutil.ToFloat64(m.FramesDropped), 2},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestStateChanged(t *testing.T) {
	m := New()

	if got := testutil.ToFloat64(m.SessionState.WithLabelValues("idle")); got != 1 {
		t.Errorf("expected idle initially, got %v", got)
	}

	m.StateChanged("starting")
	m.StateChanged("active")

	for _, s := range sessionStates {
		want := 0.0
		if s == "active" {
			want = 1
		}
		if got := testutil.ToFloat64(m.SessionState.WithLabelValues(s)); got != want {
			t.Errorf("state %s: expected %v, got %v", s, want, got)
		}
	}
	if got := testutil.ToFloat64(m.Sessions); got != 1 {
		t.Errorf("expected 1 session started, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ChunkSent(10)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "vaani_chunks_sent_total 1") {
		t.Errorf("expected chunk counter in output, got:\n%s", body)
	}
}

func TestServerMetrics(t *testing.T) {
	m := NewServer()
	m.Connections.Inc()
	m.ChunksReceived.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"vaani_echo_connections 1", "vaani_echo_chunks_received_total 1"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in output", want)
		}
	}
}
