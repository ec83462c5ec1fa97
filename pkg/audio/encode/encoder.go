// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for audio encoders feeding the transport
package encode

import "github.com/granthai/vaani-go/pkg/audio"

// Encoder encodes float frames to wire bytes
type Encoder interface {
	// Encode converts a frame to encoded audio data
	Encode(frame audio.Frame) ([]byte, error)

	// MimeType returns the mime type advertised on the wire
	MimeType() string

	// Close releases encoder resources
	Close() error
}
