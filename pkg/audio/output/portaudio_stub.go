//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"

	"github.com/granthai/vaani-go/pkg/audio"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio playback engine (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio engine
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Init reports that PortAudio support is not compiled in
func (p *PortAudio) Init(format audio.Format, buf *Buffer) error {
	return errPortAudioDisabled
}

// Resume reports that PortAudio support is not compiled in
func (p *PortAudio) Resume() error {
	return errPortAudioDisabled
}

// Suspend reports that PortAudio support is not compiled in
func (p *PortAudio) Suspend() error {
	return errPortAudioDisabled
}

// State always reports an uninitialized context
func (p *PortAudio) State() ContextState {
	return StateUninitialized
}

// Close is a no-op
func (p *PortAudio) Close() error {
	return nil
}
