// ABOUTME: Oto-based playback engine
// ABOUTME: Streams the playback buffer to a persistent oto player as float32
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/granthai/vaani-go/pkg/audio"
)

// Oto playback engine using the oto library.
// oto allows one context per process, so an Oto engine cannot be
// re-initialized after Close.
type Oto struct {
	mu      sync.Mutex
	state   contextState
	otoCtx  *oto.Context
	player  *oto.Player
	format  audio.Format
	started bool
}

// NewOto creates a new oto engine
func NewOto() *Oto {
	return &Oto{}
}

// Init creates the oto context and a player reading from buf
func (o *Oto) Init(format audio.Format, buf *Buffer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := checkFormat(format); err != nil {
		return err
	}
	if o.state.get() != StateUninitialized {
		return fmt.Errorf("engine already initialized")
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.format = format
	o.state.set(StateInitialized)

	o.player = o.otoCtx.NewPlayer(&bufferReader{buffer: buf})

	// The context starts running; hold it until the first Resume.
	if err := o.otoCtx.Suspend(); err != nil {
		log.Printf("Warning: oto suspend error: %v", err)
	}
	o.state.set(StateSuspended)

	log.Printf("Audio output initialized: %dHz, %d channel, f32 (oto)",
		format.SampleRate, format.Channels)
	return nil
}

// Resume resumes the oto context and starts the player on first use
func (o *Oto) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state.get() {
	case StateRunning:
		return nil
	case StateSuspended:
	default:
		return fmt.Errorf("cannot resume from %s", o.state.get())
	}

	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}
	if !o.started {
		o.player.Play()
		o.started = true
	}
	o.state.set(StateRunning)
	return nil
}

// Suspend suspends the oto context
func (o *Oto) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.get() != StateRunning {
		return nil
	}
	if err := o.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend oto context: %w", err)
	}
	o.state.set(StateSuspended)
	return nil
}

// State returns the output context state
func (o *Oto) State() ContextState {
	return o.state.get()
}

// Close releases the player and suspends the context
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Warning: oto player close error: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil && o.state.get() == StateRunning {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
	}
	o.state.set(StateClosed)
	return nil
}

// bufferReader adapts a Buffer to the io.Reader oto pulls from.
// It never returns EOF; an empty buffer reads as silence.
type bufferReader struct {
	buffer  *Buffer
	scratch []float32
}

func (r *bufferReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}
	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	samples := r.scratch[:n]

	r.buffer.Read(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}
