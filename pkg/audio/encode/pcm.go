// ABOUTME: PCM audio encoder
// ABOUTME: Encodes float frames to 16-bit signed little-endian PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/granthai/vaani-go/pkg/audio"
)

// PCMMimeType is the mime type of raw PCM16LE chunks
const PCMMimeType = "audio/pcm"

// PCMEncoder encodes PCM16LE audio
type PCMEncoder struct {
	format audio.Format
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}
	if format.Channels != 1 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1)", format.Channels)
	}

	return &PCMEncoder{format: format}, nil
}

// Encode converts a float frame to PCM16LE bytes
func (e *PCMEncoder) Encode(frame audio.Frame) ([]byte, error) {
	return AppendPCM16(make([]byte, 0, len(frame)*audio.BytesPerSample), frame), nil
}

// MimeType returns the wire mime type
func (e *PCMEncoder) MimeType() string {
	return PCMMimeType
}

// Format returns the encoder input format
func (e *PCMEncoder) Format() audio.Format {
	return e.format
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

// AppendPCM16 quantizes each sample and appends it little-endian to dst.
// Samples are always written whole, two bytes at a time.
func AppendPCM16(dst []byte, frame audio.Frame) []byte {
	for _, s := range frame {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(audio.Quantize(s)))
	}
	return dst
}
