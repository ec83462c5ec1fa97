// ABOUTME: Device-less playback engine
// ABOUTME: Tracks context state without opening hardware
package output

import (
	"fmt"

	"github.com/granthai/vaani-go/pkg/audio"
)

// Null is an engine with no device. Nothing drains its buffer unless the
// caller reads from it.
type Null struct {
	state  contextState
	format audio.Format
	buffer *Buffer
}

// NewNull creates a device-less engine
func NewNull() *Null {
	return &Null{}
}

// Init records the format and leaves the context suspended
func (n *Null) Init(format audio.Format, buf *Buffer) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if n.state.get() != StateUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	n.format = format
	n.buffer = buf
	n.state.set(StateInitialized)
	n.state.set(StateSuspended)
	return nil
}

// Resume marks the context running
func (n *Null) Resume() error {
	switch n.state.get() {
	case StateSuspended, StateRunning:
		n.state.set(StateRunning)
		return nil
	default:
		return fmt.Errorf("cannot resume from %s", n.state.get())
	}
}

// Suspend marks the context suspended
func (n *Null) Suspend() error {
	switch n.state.get() {
	case StateSuspended, StateRunning:
		n.state.set(StateSuspended)
		return nil
	default:
		return fmt.Errorf("cannot suspend from %s", n.state.get())
	}
}

// State returns the output context state
func (n *Null) State() ContextState {
	return n.state.get()
}

// Format returns the format passed to Init
func (n *Null) Format() audio.Format {
	return n.format
}

// Close marks the engine closed
func (n *Null) Close() error {
	n.state.set(StateClosed)
	return nil
}
