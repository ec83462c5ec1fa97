// ABOUTME: Tests for audio resampler
// ABOUTME: Tests linear interpolation resampling between sample rates
package resample

import (
	"math"
	"testing"

	"github.com/granthai/vaani-go/pkg/audio"
)

func ramp(n int) audio.Frame {
	f := make(audio.Frame, n)
	for i := range f {
		f[i] = float32(i) / float32(n)
	}
	return f
}

func TestNew(t *testing.T) {
	r := New(16000, 24000)

	if r == nil {
		t.Fatal("expected resampler to be created")
	}

	if r.inputRate != 16000 {
		t.Errorf("expected inputRate 16000, got %d", r.inputRate)
	}

	if r.outputRate != 24000 {
		t.Errorf("expected outputRate 24000, got %d", r.outputRate)
	}
}

func TestResampleUpsampling(t *testing.T) {
	// 16000 -> 24000 (upsampling by 1.5)
	r := New(16000, 24000)

	input := ramp(1600)
	expectedSize := 2400

	output := r.Resample(input)

	if len(output) == 0 {
		t.Fatal("resampler produced no output")
	}

	// Allow a couple of samples of tolerance for the edge of the block
	if len(output) < expectedSize-3 || len(output) > expectedSize+3 {
		t.Errorf("expected ~%d samples, got %d", expectedSize, len(output))
	}

	// Ramp input must stay monotonic
	for i := 1; i < len(output); i++ {
		if output[i] < output[i-1] {
			t.Fatalf("output not monotonic at %d: %v < %v", i, output[i], output[i-1])
		}
	}
}

func TestResampleDownsampling(t *testing.T) {
	r := New(24000, 16000)

	output := r.Resample(ramp(2400))

	if len(output) < 1597 || len(output) > 1603 {
		t.Errorf("expected ~1600 samples, got %d", len(output))
	}
}

func TestResampleSameRate(t *testing.T) {
	r := New(16000, 16000)

	input := ramp(100)
	output := r.Resample(input)

	if len(output) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(output))
	}
	for i := range input {
		if output[i] != input[i] {
			t.Errorf("sample %d: expected %v, got %v", i, input[i], output[i])
		}
	}
}

func TestResampleStreamLength(t *testing.T) {
	// Feeding many blocks must not drift from the exact rate ratio
	r := New(16000, 24000)

	total := 0
	for i := 0; i < 100; i++ {
		total += len(r.Resample(ramp(1600)))
	}

	expected := 100 * 2400
	if total < expected-3 || total > expected+3 {
		t.Errorf("expected ~%d samples over the stream, got %d", expected, total)
	}
}

func TestResampleConstantSignal(t *testing.T) {
	r := New(16000, 24000)

	input := make(audio.Frame, 320)
	for i := range input {
		input[i] = 0.25
	}

	for block := 0; block < 3; block++ {
		for i, s := range r.Resample(input) {
			if math.Abs(float64(s-0.25)) > 1e-6 {
				t.Fatalf("block %d sample %d: expected 0.25, got %v", block, i, s)
			}
		}
	}
}

func TestResampleEmpty(t *testing.T) {
	r := New(16000, 24000)
	if out := r.Resample(nil); out != nil {
		t.Errorf("expected nil output, got %v", out)
	}
}

func TestReset(t *testing.T) {
	r := New(16000, 24000)
	r.Resample(ramp(10))
	r.Reset()

	if r.position != 0 || r.primed {
		t.Error("expected state to be cleared")
	}
}
