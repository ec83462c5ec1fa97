// ABOUTME: Chunk framer for outbound capture audio
// ABOUTME: Accumulates PCM16LE samples and flushes them on a fixed timer
package voice

import (
	"context"
	"log"
	"time"

	"github.com/granthai/vaani-go/pkg/audio"
	"github.com/granthai/vaani-go/pkg/audio/encode"
	"github.com/granthai/vaani-go/pkg/protocol"
)

// DefaultFlushInterval is the wall-clock chunk length
const DefaultFlushInterval = 1500 * time.Millisecond

// Sender delivers outbound envelopes
type Sender interface {
	Send(out protocol.Outbound) error
}

// Framer owns one session's PCM buffer.
// It is not safe for concurrent use; Run is its single owner.
type Framer struct {
	encoder encode.Encoder
	sender  Sender
	buf     []byte

	// OnFlush is called after every attempted send
	OnFlush func(bytes int, err error)
}

// NewFramer creates a framer that encodes with encoder and sends through sender
func NewFramer(encoder encode.Encoder, sender Sender) *Framer {
	return &Framer{
		encoder: encoder,
		sender:  sender,
	}
}

// Append encodes a frame onto the buffer
func (f *Framer) Append(frame audio.Frame) error {
	data, err := f.encoder.Encode(frame)
	if err != nil {
		return err
	}
	f.buf = append(f.buf, data...)
	return nil
}

// Flush sends the buffered samples as one chunk and clears the buffer.
// An empty buffer is never sent; Flush then reports false.
func (f *Framer) Flush() (bool, error) {
	if len(f.buf) == 0 {
		return false, nil
	}

	n := len(f.buf)
	out := protocol.NewOutbound(f.encoder.MimeType(), f.buf)
	f.buf = f.buf[:0]

	err := f.sender.Send(out)
	if f.OnFlush != nil {
		f.OnFlush(n, err)
	}
	return true, err
}

// Pending returns the number of buffered bytes
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Discard drops buffered samples and returns how many bytes were dropped
func (f *Framer) Discard() int {
	n := len(f.buf)
	f.buf = f.buf[:0]
	return n
}

// Run appends frames and flushes on every tick until ctx is done.
// When frames closes, the next tick flushes what remains and Run returns.
// Samples buffered when ctx is cancelled are discarded.
func (f *Framer) Run(ctx context.Context, frames <-chan audio.Frame, ticks <-chan time.Time) {
	captureDone := false

	for {
		select {
		case <-ctx.Done():
			f.Discard()
			return

		case frame, ok := <-frames:
			if !ok {
				captureDone = true
				frames = nil
				continue
			}
			if err := f.Append(frame); err != nil {
				log.Printf("Encode failed, dropping frame: %v", err)
			}

		case <-ticks:
			f.Flush()
			if captureDone {
				return
			}
		}
	}
}
