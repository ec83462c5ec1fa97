// ABOUTME: Malgo-based playback engine
// ABOUTME: Uses miniaudio via malgo to drain the playback buffer as float32
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/granthai/vaani-go/pkg/audio"
)

// Malgo playback engine using malgo/miniaudio
type Malgo struct {
	mu       sync.Mutex
	state    contextState
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
	buffer   *Buffer

	// scratch is only touched by the output callback
	scratch []float32
}

// NewMalgo creates a new malgo engine
func NewMalgo() *Malgo {
	return &Malgo{}
}

// Init creates the malgo context and playback device without starting it
func (m *Malgo) Init(format audio.Format, buf *Buffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkFormat(format); err != nil {
		return err
	}
	if m.state.get() != StateUninitialized {
		return fmt.Errorf("engine already initialized")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx
	m.format = format
	m.buffer = buf
	m.state.set(StateInitialized)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		m.releaseContext()
		m.state.set(StateUninitialized)
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	m.device = device
	m.state.set(StateSuspended)

	log.Printf("Audio output initialized: %dHz, %d channel, f32 (malgo)",
		format.SampleRate, format.Channels)
	return nil
}

// dataCallback is called by malgo to fill the output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	n := int(frameCount) * m.format.Channels
	if len(pOutput) < n*4 {
		n = len(pOutput) / 4
	}
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	samples := m.scratch[:n]

	m.buffer.Read(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(pOutput[i*4:], math.Float32bits(s))
	}
}

// Resume starts the playback device
func (m *Malgo) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.get() {
	case StateRunning:
		return nil
	case StateSuspended:
	default:
		return fmt.Errorf("cannot resume from %s", m.state.get())
	}

	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	m.state.set(StateRunning)
	return nil
}

// Suspend stops the playback device, keeping it initialized
func (m *Malgo) Suspend() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.get() != StateRunning {
		return nil
	}
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	m.state.set(StateSuspended)
	return nil
}

// State returns the output context state
func (m *Malgo) State() ContextState {
	return m.state.get()
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()
	m.releaseContext()
	m.state.set(StateClosed)
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if m.state.get() == StateRunning {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
	}
	m.device.Uninit()
	m.device = nil
}

// releaseContext frees the malgo context (must hold m.mu)
func (m *Malgo) releaseContext() {
	if m.malgoCtx == nil {
		return
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
}
