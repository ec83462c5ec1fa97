// ABOUTME: Microphone capture package
// ABOUTME: Provides the Source interface with malgo, PortAudio and test tone backends
// Package capture provides microphone capture sources.
//
// A Device opens a Source for a set of Constraints. The source delivers
// fixed-size mono float32 frames on a bounded channel. The hardware callback
// only pushes to that channel and never blocks: when the consumer falls
// behind, frames are dropped and counted in Stats.
//
// Open fails with ErrPermissionDenied or ErrDeviceUnavailable. A source is
// not restartable: after Close the frame channel is closed and a new source
// must be opened.
//
// Backends:
//   - Malgo: miniaudio via malgo (default)
//   - PortAudio: requires -tags portaudio
//   - Tone: a paced sine wave for headless runs and tests
//
// Example:
//
//	src, err := capture.NewMalgo().Open(capture.DefaultConstraints())
//	defer src.Close()
//	for frame := range src.Frames() {
//	    ...
//	}
package capture
