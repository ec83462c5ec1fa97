// ABOUTME: Audio output package for playing inbound voice audio
// ABOUTME: Provides the playback Buffer, Sink and Engine backends
// Package output provides realtime playback of decoded voice audio.
//
// Decoded frames are pushed onto a Buffer in arrival order. An Engine owns
// the hardware output context and drains the Buffer from its output callback.
// The callback never blocks: when the Buffer is empty or its lock is held by
// a writer it plays silence.
//
// The engine's output context moves Uninitialized → Initialized → Suspended
// and then between Suspended and Running. A Sink initializes the engine
// lazily on the first frame and resumes a suspended context before writing.
//
// The Buffer is unbounded. When playback falls behind arrival, latency grows;
// Depth reports how far behind it is.
//
// Backends:
//   - Malgo: miniaudio via malgo (default)
//   - Oto: ebitengine/oto
//   - PortAudio: requires -tags portaudio
//   - Null: no device, for headless runs and tests
//
// Example:
//
//	sink := output.NewSink(output.NewMalgo(), audio.PlaybackFormat)
//	defer sink.Close()
//	err := sink.Play(frame)
package output
