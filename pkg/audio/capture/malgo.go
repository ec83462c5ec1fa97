// ABOUTME: Malgo-based microphone capture
// ABOUTME: Uses miniaudio via malgo to deliver float32 frames from the default input
package capture

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/granthai/vaani-go/pkg/audio"
)

// Malgo opens capture sources on the default input device
type Malgo struct{}

// NewMalgo creates a malgo capture device
func NewMalgo() Device {
	return Malgo{}
}

// MalgoSource is an open malgo capture stream
type MalgoSource struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
	queue    *queue

	closeOnce sync.Once
	closeErr  error
}

// Open initializes and starts the default capture device
func (Malgo) Open(c Constraints) (Source, error) {
	c, err := c.withDefaults()
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", classifyError(err))
	}

	s := &MalgoSource{
		malgoCtx: ctx,
		format:   audio.Format{SampleRate: c.SampleRate, Channels: c.Channels},
		queue:    newQueue(c.QueueDepth),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(c.Channels)
	deviceConfig.SampleRate = uint32(c.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(c.FramesPerBuffer)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			s.dataCallback(pInputSamples, frameCount)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		s.releaseContext()
		return nil, fmt.Errorf("failed to initialize capture device: %w", classifyError(err))
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		s.releaseContext()
		return nil, fmt.Errorf("failed to start capture device: %w", classifyError(err))
	}

	s.device = device
	log.Printf("Audio capture initialized: %dHz, %d channel, %d frames per callback (malgo)",
		c.SampleRate, c.Channels, c.FramesPerBuffer)

	return s, nil
}

// dataCallback runs on the audio thread
func (s *MalgoSource) dataCallback(input []byte, frameCount uint32) {
	n := int(frameCount) * s.format.Channels
	if len(input) < n*4 {
		n = len(input) / 4
	}

	frame := make(audio.Frame, n)
	for i := range frame {
		frame[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:]))
	}
	s.queue.push(frame)
}

// Frames returns the frame sequence
func (s *MalgoSource) Frames() <-chan audio.Frame {
	return s.queue.frames
}

// Format returns the capture format
func (s *MalgoSource) Format() audio.Format {
	return s.format
}

// Stats returns capture counters
func (s *MalgoSource) Stats() Stats {
	return s.queue.stats()
}

// Close stops the device and releases the malgo context
func (s *MalgoSource) Close() error {
	s.closeOnce.Do(func() {
		if s.device != nil {
			if err := s.device.Stop(); err != nil {
				log.Printf("Warning: capture device stop error: %v", err)
			}
			s.device.Uninit()
			s.device = nil
		}
		s.queue.close()
		s.releaseContext()
		log.Printf("Audio capture closed")
	})
	return s.closeErr
}

func (s *MalgoSource) releaseContext() {
	if s.malgoCtx == nil {
		return
	}
	if err := s.malgoCtx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
		s.closeErr = err
	}
	s.malgoCtx.Free()
	s.malgoCtx = nil
}

// classifyError maps miniaudio results onto the capture error taxonomy
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied"), strings.Contains(msg, "permission"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
}
