// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for inbound audio decoders
package decode

import (
	"errors"

	"github.com/granthai/vaani-go/pkg/audio"
)

// ErrMalformedPayload is returned for payloads that cannot be decoded
var ErrMalformedPayload = errors.New("malformed audio payload")

// Decoder decodes inbound audio to float frames
type Decoder interface {
	// Decode converts encoded audio data to a float frame
	Decode(data []byte) (audio.Frame, error)

	// Close releases decoder resources
	Close() error
}
