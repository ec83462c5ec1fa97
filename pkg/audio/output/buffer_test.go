// ABOUTME: Tests for the playback buffer
// ABOUTME: Tests ordering, partial reads, underruns and lock contention
package output

import (
	"testing"

	"github.com/granthai/vaani-go/pkg/audio"
)

func TestBufferOrder(t *testing.T) {
	b := NewBuffer()
	b.Push(audio.Frame{-1.0, 0.9921875})
	b.Push(audio.Frame{0.5})

	dst := make([]float32, 3)
	if n := b.Read(dst); n != 3 {
		t.Fatalf("expected 3 samples, got %d", n)
	}

	want := []float32{-1.0, 0.9921875, 0.5}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], dst[i])
		}
	}
}

func TestBufferPartialReads(t *testing.T) {
	b := NewBuffer()
	b.Push(audio.Frame{1, 2, 3, 4, 5})

	dst := make([]float32, 2)
	tests := []struct {
		wantN     int
		wantFirst float32
		wantDepth int
	}{
		{2, 1, 3},
		{2, 3, 1},
		{1, 5, 0},
		{0, 0, 0},
	}

	for i, tt := range tests {
		n := b.Read(dst)
		if n != tt.wantN {
			t.Errorf("read %d: expected %d samples, got %d", i, tt.wantN, n)
		}
		if dst[0] != tt.wantFirst {
			t.Errorf("read %d: expected first sample %v, got %v", i, tt.wantFirst, dst[0])
		}
		if b.Depth() != tt.wantDepth {
			t.Errorf("read %d: expected depth %d, got %d", i, tt.wantDepth, b.Depth())
		}
	}
}

func TestBufferUnderrunZeroFills(t *testing.T) {
	b := NewBuffer()
	b.Push(audio.Frame{0.25})

	dst := []float32{9, 9, 9}
	if n := b.Read(dst); n != 1 {
		t.Fatalf("expected 1 sample, got %d", n)
	}
	if dst[0] != 0.25 || dst[1] != 0 || dst[2] != 0 {
		t.Errorf("expected zero fill after data, got %v", dst)
	}
	if b.Stats().Underruns != 1 {
		t.Errorf("expected 1 underrun, got %d", b.Stats().Underruns)
	}
}

func TestBufferReadWhileLockedPlaysSilence(t *testing.T) {
	b := NewBuffer()
	b.Push(audio.Frame{0.5, 0.5})

	b.mu.Lock()
	dst := []float32{9, 9}
	n := b.Read(dst)
	b.mu.Unlock()

	if n != 0 {
		t.Errorf("expected 0 samples while locked, got %d", n)
	}
	if dst[0] != 0 || dst[1] != 0 {
		t.Errorf("expected silence, got %v", dst)
	}
	if b.Stats().Contended != 1 {
		t.Errorf("expected 1 contended read, got %d", b.Stats().Contended)
	}

	// Nothing was consumed
	if b.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", b.Depth())
	}
}

func TestBufferUnbounded(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 1000; i++ {
		b.Push(make(audio.Frame, 2400))
	}
	if b.Depth() != 2400000 {
		t.Errorf("expected depth 2400000, got %d", b.Depth())
	}
}

func TestBufferPushEmpty(t *testing.T) {
	b := NewBuffer()
	b.Push(nil)
	b.Push(audio.Frame{})
	if b.Depth() != 0 {
		t.Errorf("expected depth 0, got %d", b.Depth())
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer()
	b.Push(audio.Frame{1, 2, 3})
	b.Reset()
	if b.Depth() != 0 {
		t.Errorf("expected depth 0 after reset, got %d", b.Depth())
	}
}

func TestBufferReaderNeverEOF(t *testing.T) {
	b := NewBuffer()
	r := &bufferReader{buffer: b}

	p := make([]byte, 16)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 16 {
		t.Errorf("expected 16 bytes of silence, got %d", n)
	}
}
