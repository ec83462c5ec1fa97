// ABOUTME: Playback buffer between the decoder and the output callback
// ABOUTME: Unbounded frame queue with a non-blocking read for realtime callbacks
package output

import (
	"sync"
	"sync/atomic"

	"github.com/granthai/vaani-go/pkg/audio"
)

// Buffer queues decoded frames for playback.
// Push is called from the inbound goroutine; Read from the output callback.
type Buffer struct {
	mu      sync.Mutex
	frames  []audio.Frame
	offset  int // read position within frames[0]
	samples int

	depth     atomic.Int64
	underruns atomic.Int64
	contended atomic.Int64
	muted     atomic.Bool
}

// BufferStats holds playback buffer counters
type BufferStats struct {
	Depth     int   // samples waiting to play
	Underruns int64 // callbacks that ran out of samples
	Contended int64 // callbacks that found the lock held
}

// NewBuffer creates an empty playback buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Push appends a frame. Frames play in the order they are pushed.
func (b *Buffer) Push(frame audio.Frame) {
	if len(frame) == 0 {
		return
	}

	b.mu.Lock()
	b.frames = append(b.frames, frame)
	b.samples += len(frame)
	b.depth.Store(int64(b.samples))
	b.mu.Unlock()
}

// Read fills dst with the next samples and zero-fills the remainder.
// It never blocks: if the lock is held it writes silence and returns 0.
func (b *Buffer) Read(dst []float32) int {
	if !b.mu.TryLock() {
		b.contended.Add(1)
		clear(dst)
		return 0
	}

	read := 0
	for read < len(dst) && len(b.frames) > 0 {
		head := b.frames[0]
		n := copy(dst[read:], head[b.offset:])
		read += n
		b.offset += n
		if b.offset == len(head) {
			b.frames[0] = nil
			b.frames = b.frames[1:]
			b.offset = 0
		}
	}
	b.samples -= read
	b.depth.Store(int64(b.samples))
	b.mu.Unlock()

	if b.muted.Load() {
		clear(dst[:read])
	}
	if read < len(dst) {
		clear(dst[read:])
		b.underruns.Add(1)
	}

	return read
}

// Depth returns the number of samples waiting to play
func (b *Buffer) Depth() int {
	return int(b.depth.Load())
}

// Reset discards all queued samples
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.frames = nil
	b.offset = 0
	b.samples = 0
	b.depth.Store(0)
	b.mu.Unlock()
}

// SetMuted sets mute state. Muted samples are still drained.
func (b *Buffer) SetMuted(muted bool) {
	b.muted.Store(muted)
}

// IsMuted returns mute state
func (b *Buffer) IsMuted() bool {
	return b.muted.Load()
}

// Stats returns buffer counters
func (b *Buffer) Stats() BufferStats {
	return BufferStats{
		Depth:     b.Depth(),
		Underruns: b.underruns.Load(),
		Contended: b.contended.Load(),
	}
}
