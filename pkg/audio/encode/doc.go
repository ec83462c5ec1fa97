// ABOUTME: Audio encoder package for encoding float frames to wire formats
// ABOUTME: Provides Encoder interface and the PCM16LE implementation
// Package encode provides audio encoders for the outbound direction.
//
// Supports: PCM (16-bit signed little-endian, mono)
//
// Example:
//
//	encoder, err := encode.NewPCM(audio.CaptureFormat)
//	data, err := encoder.Encode(frame)
package encode
