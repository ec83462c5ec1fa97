// ABOUTME: Capture source interface and shared plumbing
// ABOUTME: Defines constraints, capture errors and the realtime frame queue
package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/granthai/vaani-go/pkg/audio"
)

var (
	// ErrPermissionDenied is returned when the OS refuses microphone access
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrDeviceUnavailable is returned when no usable input device exists
	ErrDeviceUnavailable = errors.New("capture device unavailable")
)

const (
	// DefaultFramesPerBuffer matches a 4096-sample capture callback
	DefaultFramesPerBuffer = 4096

	// DefaultQueueDepth bounds frames waiting between callback and encoder
	DefaultQueueDepth = 64
)

// Constraints describe the requested input device configuration
type Constraints struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
	QueueDepth      int
}

// DefaultConstraints returns mono 16 kHz capture constraints
func DefaultConstraints() Constraints {
	return Constraints{
		SampleRate:      audio.CaptureSampleRate,
		Channels:        1,
		FramesPerBuffer: DefaultFramesPerBuffer,
		QueueDepth:      DefaultQueueDepth,
	}
}

// withDefaults fills zero fields and rejects non-mono requests
func (c Constraints) withDefaults() (Constraints, error) {
	def := DefaultConstraints()
	if c.SampleRate == 0 {
		c.SampleRate = def.SampleRate
	}
	if c.Channels == 0 {
		c.Channels = def.Channels
	}
	if c.FramesPerBuffer == 0 {
		c.FramesPerBuffer = def.FramesPerBuffer
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = def.QueueDepth
	}
	if c.Channels != 1 {
		return c, fmt.Errorf("unsupported channel count: %d (capture is mono)", c.Channels)
	}
	if c.SampleRate < 0 || c.FramesPerBuffer < 0 || c.QueueDepth < 0 {
		return c, fmt.Errorf("invalid capture constraints: %+v", c)
	}
	return c, nil
}

// Source is an open capture stream.
// Frames yields fixed-size frames until Close; a closed source cannot be
// reopened.
type Source interface {
	// Frames returns the frame sequence. It is closed after Close.
	Frames() <-chan audio.Frame

	// Format returns the capture format
	Format() audio.Format

	// Stats returns capture counters
	Stats() Stats

	// Close releases the device. Safe to call more than once.
	Close() error
}

// Device opens capture sources
type Device interface {
	Open(c Constraints) (Source, error)
}

// DeviceFunc adapts a function to Device
type DeviceFunc func(c Constraints) (Source, error)

// Open calls f(c)
func (f DeviceFunc) Open(c Constraints) (Source, error) {
	return f(c)
}

// Stats holds capture counters
type Stats struct {
	Captured int64 // frames delivered to the queue
	Dropped  int64 // frames dropped because the queue was full
}

// queue is the handoff between a realtime callback and the encoder.
// push never blocks; a full queue drops the frame.
type queue struct {
	frames   chan audio.Frame
	captured atomic.Int64
	dropped  atomic.Int64

	mu     sync.RWMutex
	closed bool
}

func newQueue(depth int) *queue {
	return &queue{frames: make(chan audio.Frame, depth)}
}

// push is called from the audio callback
func (q *queue) push(f audio.Frame) {
	// TryRLock keeps the callback from waiting on a concurrent close
	if !q.mu.TryRLock() {
		q.dropped.Add(1)
		return
	}
	defer q.mu.RUnlock()

	if q.closed {
		return
	}

	select {
	case q.frames <- f:
		q.captured.Add(1)
	default:
		q.dropped.Add(1)
	}
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.frames)
	}
}

func (q *queue) stats() Stats {
	return Stats{
		Captured: q.captured.Load(),
		Dropped:  q.dropped.Load(),
	}
}
