//go:build portaudio

// ABOUTME: PortAudio playback engine
// ABOUTME: Cross-platform audio output using PortAudio
package output

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/granthai/vaani-go/pkg/audio"
)

// PortAudio playback engine
type PortAudio struct {
	mu     sync.Mutex
	state  contextState
	stream *portaudio.Stream
}

// NewPortAudio creates a new PortAudio engine
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Init initializes PortAudio and opens a stopped output stream
func (p *PortAudio) Init(format audio.Format, buf *Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkFormat(format); err != nil {
		return err
	}
	if p.state.get() != StateUninitialized {
		return fmt.Errorf("engine already initialized")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	p.state.set(StateInitialized)

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), 0, func(out []float32) {
		buf.Read(out)
	})
	if err != nil {
		portaudio.Terminate()
		p.state.set(StateUninitialized)
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	p.state.set(StateSuspended)
	return nil
}

// Resume starts the stream
func (p *PortAudio) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state.get() {
	case StateRunning:
		return nil
	case StateSuspended:
	default:
		return fmt.Errorf("cannot resume from %s", p.state.get())
	}

	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	p.state.set(StateRunning)
	return nil
}

// Suspend stops the stream
func (p *PortAudio) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.get() != StateRunning {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	p.state.set(StateSuspended)
	return nil
}

// State returns the output context state
func (p *PortAudio) State() ContextState {
	return p.state.get()
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	if p.state.get() == StateRunning {
		if err := p.stream.Stop(); err != nil {
			return err
		}
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	p.stream = nil
	p.state.set(StateClosed)
	return portaudio.Terminate()
}
