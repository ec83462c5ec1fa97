//go:build !portaudio

// ABOUTME: PortAudio capture stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package capture

import (
	"fmt"
)

// PortAudio capture device (stub)
type PortAudio struct{}

// NewPortAudio creates a PortAudio capture device
func NewPortAudio() Device {
	return PortAudio{}
}

// Open reports that PortAudio support is not compiled in
func (PortAudio) Open(c Constraints) (Source, error) {
	return nil, fmt.Errorf("%w: PortAudio support not enabled (build with -tags portaudio)", ErrDeviceUnavailable)
}
