// ABOUTME: PCM audio decoder
// ABOUTME: Decodes base64 or raw PCM16LE payloads to float frames
package decode

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/granthai/vaani-go/pkg/audio"
)

// PCMDecoder decodes PCM16LE audio
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}
	if format.Channels != 1 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1)", format.Channels)
	}

	return &PCMDecoder{format: format}, nil
}

// Decode converts PCM16LE bytes to float samples in arrival order
func (d *PCMDecoder) Decode(data []byte) (audio.Frame, error) {
	if len(data)%audio.BytesPerSample != 0 {
		return nil, fmt.Errorf("%w: odd byte length %d", ErrMalformedPayload, len(data))
	}

	numSamples := len(data) / audio.BytesPerSample
	frame := make(audio.Frame, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		frame[i] = audio.Dequantize(sample16)
	}
	return frame, nil
}

// DecodeBase64 decodes a base64 transport payload and then the PCM inside it
func (d *PCMDecoder) DecodeBase64(payload string) (audio.Frame, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return d.Decode(data)
}

// Format returns the decoder output format
func (d *PCMDecoder) Format() audio.Format {
	return d.format
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
