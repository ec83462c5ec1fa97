// ABOUTME: Audio decoder package for inbound voice audio
// ABOUTME: Provides Decoder interface and the PCM16LE implementation
// Package decode provides audio decoders for the inbound direction.
//
// Supports: PCM (16-bit signed little-endian, mono), raw or base64 wrapped.
//
// Payloads with an odd byte length or invalid base64 are rejected with
// ErrMalformedPayload and never partially decoded.
//
// Example:
//
//	decoder, err := decode.NewPCM(audio.PlaybackFormat)
//	frame, err := decoder.DecodeBase64(payload)
package decode
