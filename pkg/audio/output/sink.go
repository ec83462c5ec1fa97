// ABOUTME: Playback sink feeding decoded frames to an engine
// ABOUTME: Initializes the engine lazily and resumes it before writing
package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/granthai/vaani-go/pkg/audio"
)

// Sink routes decoded frames into an engine's playback buffer
type Sink struct {
	engine Engine
	format audio.Format
	buffer *Buffer

	mu     sync.Mutex
	closed bool
}

// NewSink creates a sink. The engine is not touched until the first Play.
func NewSink(engine Engine, format audio.Format) *Sink {
	return &Sink{
		engine: engine,
		format: format,
		buffer: NewBuffer(),
	}
}

// Play queues a frame, initializing and resuming the engine as needed
func (s *Sink) Play(frame audio.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("sink closed")
	}

	if s.engine.State() == StateUninitialized {
		if err := s.engine.Init(s.format, s.buffer); err != nil {
			return fmt.Errorf("failed to initialize playback: %w", err)
		}
	}

	if s.engine.State() == StateSuspended {
		if err := s.engine.Resume(); err != nil {
			return fmt.Errorf("failed to resume playback: %w", err)
		}
	}

	s.buffer.Push(frame)
	return nil
}

// Buffer returns the sink's playback buffer
func (s *Sink) Buffer() *Buffer {
	return s.buffer
}

// State returns the engine's output context state
func (s *Sink) State() ContextState {
	return s.engine.State()
}

// SetMuted sets mute state
func (s *Sink) SetMuted(muted bool) {
	s.buffer.SetMuted(muted)
	log.Printf("Playback muted: %v", muted)
}

// IsMuted returns mute state
func (s *Sink) IsMuted() bool {
	return s.buffer.IsMuted()
}

// Close releases the engine and discards queued audio
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.buffer.Reset()

	if s.engine.State() == StateUninitialized {
		return nil
	}
	return s.engine.Close()
}
