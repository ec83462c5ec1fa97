// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and Frame types and PCM16 sample conversion
// Package audio provides fundamental audio types for the voice pipeline.
//
// This package defines core types used throughout the vaani client:
//   - Format: Describes one stream direction (sample rate, channels)
//   - Frame: A block of float32 samples in [-1, 1]
//
// The capture direction runs at 16 kHz and the playback direction at
// 24 kHz. Nothing in this module resamples between them.
//
// Quantize and Dequantize share one scale (32768), so the round trip error
// is bounded by 2^-15 for every sample in [-1, 1].
//
// Example:
//
//	v := audio.Quantize(0.5)      // 16384
//	s := audio.Dequantize(-32768) // -1.0
package audio
