// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, float frames and PCM16 sample conversion
package audio

import "math"

const (
	// CaptureSampleRate is the fixed microphone rate sent to the voice service
	CaptureSampleRate = 16000

	// PlaybackSampleRate is the fixed rate of audio returned by the voice service
	PlaybackSampleRate = 24000

	// 16-bit audio range constants
	MaxInt16 = 32767
	MinInt16 = -32768

	// pcmScale is shared by quantize and dequantize so the round trip is symmetric
	pcmScale = 32768.0

	// BytesPerSample is the size of one PCM16LE sample
	BytesPerSample = 2
)

// Format describes one direction of the audio stream
type Format struct {
	SampleRate int
	Channels   int
}

// CaptureFormat is the microphone direction: mono 16 kHz
var CaptureFormat = Format{SampleRate: CaptureSampleRate, Channels: 1}

// PlaybackFormat is the speaker direction: mono 24 kHz
var PlaybackFormat = Format{SampleRate: PlaybackSampleRate, Channels: 1}

// SamplesIn returns how many samples (per channel) fit in ms milliseconds
func (f Format) SamplesIn(ms int) int {
	return f.SampleRate * ms / 1000
}

// BytesIn returns the PCM16 byte size of ms milliseconds of audio
func (f Format) BytesIn(ms int) int {
	return f.SamplesIn(ms) * f.Channels * BytesPerSample
}

// DurationMs returns the duration in milliseconds of n PCM16 bytes
func (f Format) DurationMs(n int) int {
	samples := n / BytesPerSample / f.Channels
	return samples * 1000 / f.SampleRate
}

// Frame is one capture or playback block of float samples in [-1, 1]
type Frame []float32

// Clamp limits a float sample to [-1, 1]
func Clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	if s != s { // NaN
		return 0
	}
	return s
}

// Quantize converts a float sample to int16.
// The sample is clamped to [-1, 1], scaled by 32768 and rounded; +1.0
// saturates at 32767.
func Quantize(s float32) int16 {
	v := math.Round(float64(Clamp(s)) * pcmScale)
	if v > MaxInt16 {
		return MaxInt16
	}
	if v < MinInt16 {
		return MinInt16
	}
	return int16(v)
}

// Dequantize converts an int16 sample back to float by dividing by 32768
func Dequantize(v int16) float32 {
	return float32(v) / pcmScale
}
