// ABOUTME: Playback engine interface and output context states
// ABOUTME: Common interface for audio playback backends
package output

import (
	"fmt"
	"sync/atomic"

	"github.com/granthai/vaani-go/pkg/audio"
)

// ContextState is the state of an engine's output context
type ContextState int32

const (
	StateUninitialized ContextState = iota
	StateInitialized
	StateSuspended
	StateRunning
	StateClosed
)

func (s ContextState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("ContextState(%d)", int32(s))
	}
}

// Engine represents an audio output device
type Engine interface {
	// Init creates the output context and leaves it suspended.
	// The engine drains buf from its output callback.
	Init(format audio.Format, buf *Buffer) error

	// Resume starts or restarts the output context
	Resume() error

	// Suspend pauses the output context without releasing it
	Suspend() error

	// State returns the output context state
	State() ContextState

	// Close releases output resources
	Close() error
}

// contextState is the shared state holder for engines
type contextState struct {
	v atomic.Int32
}

func (c *contextState) get() ContextState {
	return ContextState(c.v.Load())
}

func (c *contextState) set(s ContextState) {
	c.v.Store(int32(s))
}

// checkFormat rejects anything but mono playback
func checkFormat(format audio.Format) error {
	if format.Channels != 1 {
		return fmt.Errorf("unsupported channel count: %d (playback is mono)", format.Channels)
	}
	if format.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}
	return nil
}
