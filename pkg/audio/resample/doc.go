// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts mono float frames between sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling, and keeps state between
// frames so a stream can be fed block by block.
//
// The voice client never resamples; this package is used by the local echo
// service to produce 24 kHz replies from 16 kHz input.
//
// Example:
//
//	r := resample.New(16000, 24000)
//	out := r.Resample(frame)
package resample
