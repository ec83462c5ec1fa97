// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests PCM16LE decoding and malformed payload rejection
package decode

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/granthai/vaani-go/pkg/audio"
	"github.com/granthai/vaani-go/pkg/audio/encode"
)

func newTestDecoder(t *testing.T) *PCMDecoder {
	t.Helper()
	decoder, err := NewPCM(audio.PlaybackFormat)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	return decoder
}

func TestNewPCM(t *testing.T) {
	if _, err := NewPCM(audio.PlaybackFormat); err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if _, err := NewPCM(audio.Format{SampleRate: 24000, Channels: 2}); err == nil {
		t.Error("expected error for stereo format")
	}
}

func TestPCMDecodeKnownBytes(t *testing.T) {
	decoder := newTestDecoder(t)

	output, err := decoder.Decode([]byte{0x00, 0x80, 0x00, 0x7F})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	expected := audio.Frame{-1.0, 0.9921875}
	if len(output) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(output))
	}
	for i := range expected {
		if output[i] != expected[i] {
			t.Errorf("sample %d: expected %v, got %v", i, expected[i], output[i])
		}
	}
}

func TestPCMDecodeBase64(t *testing.T) {
	decoder := newTestDecoder(t)

	payload := base64.StdEncoding.EncodeToString([]byte{0x00, 0x80, 0x00, 0x7F})
	output, err := decoder.DecodeBase64(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(output) != 2 || output[0] != -1.0 || output[1] != 0.9921875 {
		t.Errorf("unexpected output %v", output)
	}
}

func TestPCMDecodeMalformed(t *testing.T) {
	decoder := newTestDecoder(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"odd byte length", base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03})},
		{"single byte", base64.StdEncoding.EncodeToString([]byte{0x01})},
		{"invalid base64", "not*base64!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := decoder.DecodeBase64(tt.payload)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
			if output != nil {
				t.Errorf("expected no output, got %v", output)
			}
		})
	}
}

func TestPCMDecodeEmpty(t *testing.T) {
	decoder := newTestDecoder(t)

	output, err := decoder.Decode(nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(output) != 0 {
		t.Errorf("expected empty frame, got %d samples", len(output))
	}
}

func TestPCMEncodeDecodeRoundTrip(t *testing.T) {
	decoder := newTestDecoder(t)

	input := audio.Frame{0, 0.25, -0.25, 0.999, -1}
	data := encode.AppendPCM16(nil, input)

	output, err := decoder.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for i := range input {
		diff := input[i] - output[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > 1.0/32768 {
			t.Errorf("sample %d: %v decoded as %v", i, input[i], output[i])
		}
	}
}
