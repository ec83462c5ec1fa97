// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests float to PCM16LE encoding
package encode

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/granthai/vaani-go/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:    "capture format",
			format:  audio.CaptureFormat,
			wantErr: false,
		},
		{
			name:        "stereo",
			format:      audio.Format{SampleRate: 16000, Channels: 2},
			wantErr:     true,
			errContains: "unsupported channel count",
		},
		{
			name:        "zero sample rate",
			format:      audio.Format{Channels: 1},
			wantErr:     true,
			errContains: "invalid sample rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewPCM() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewPCM() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPCM() unexpected error = %v", err)
			}
			if encoder.MimeType() != "audio/pcm" {
				t.Errorf("MimeType() = %q, want audio/pcm", encoder.MimeType())
			}
		})
	}
}

func TestPCMEncoder_Encode(t *testing.T) {
	encoder, err := NewPCM(audio.CaptureFormat)
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	defer encoder.Close()

	frame := audio.Frame{0, 1, -1, 0.5, -0.5, 2}

	output, err := encoder.Encode(frame)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if len(output) != len(frame)*2 {
		t.Fatalf("Encode() output size = %d, want %d", len(output), len(frame)*2)
	}

	for i, s := range frame {
		expected := audio.Quantize(s)
		actual := int16(binary.LittleEndian.Uint16(output[i*2:]))
		if actual != expected {
			t.Errorf("Sample %d: got %d, want %d", i, actual, expected)
		}
	}
}

func TestAppendPCM16LittleEndian(t *testing.T) {
	out := AppendPCM16(nil, audio.Frame{-1})
	if len(out) != 2 || out[0] != 0x00 || out[1] != 0x80 {
		t.Errorf("expected [0x00 0x80], got %x", out)
	}

	// Appending keeps earlier samples intact
	out = AppendPCM16(out, audio.Frame{0})
	if len(out) != 4 || out[2] != 0 || out[3] != 0 {
		t.Errorf("expected 4 bytes ending in zeros, got %x", out)
	}
}
