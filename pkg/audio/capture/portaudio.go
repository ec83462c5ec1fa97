//go:build portaudio

// ABOUTME: PortAudio microphone capture
// ABOUTME: Cross-platform float32 capture using PortAudio callbacks
package capture

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/granthai/vaani-go/pkg/audio"
)

// PortAudio opens capture sources on the default PortAudio input
type PortAudio struct{}

// NewPortAudio creates a PortAudio capture device
func NewPortAudio() Device {
	return PortAudio{}
}

// PortAudioSource is an open PortAudio capture stream
type PortAudioSource struct {
	stream *portaudio.Stream
	format audio.Format
	queue  *queue

	closeOnce sync.Once
	closeErr  error
}

// Open initializes PortAudio and starts the default input stream
func (PortAudio) Open(c Constraints) (Source, error) {
	c, err := c.withDefaults()
	if err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", classifyError(err))
	}

	s := &PortAudioSource{
		format: audio.Format{SampleRate: c.SampleRate, Channels: c.Channels},
		queue:  newQueue(c.QueueDepth),
	}

	stream, err := portaudio.OpenDefaultStream(c.Channels, 0, float64(c.SampleRate), c.FramesPerBuffer, func(in []float32) {
		frame := make(audio.Frame, len(in))
		copy(frame, in)
		s.queue.push(frame)
	})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", classifyError(err))
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", classifyError(err))
	}

	s.stream = stream
	log.Printf("Audio capture initialized: %dHz, %d channel (portaudio)", c.SampleRate, c.Channels)
	return s, nil
}

// Frames returns the frame sequence
func (s *PortAudioSource) Frames() <-chan audio.Frame {
	return s.queue.frames
}

// Format returns the capture format
func (s *PortAudioSource) Format() audio.Format {
	return s.format
}

// Stats returns capture counters
func (s *PortAudioSource) Stats() Stats {
	return s.queue.stats()
}

// Close stops the stream and terminates PortAudio
func (s *PortAudioSource) Close() error {
	s.closeOnce.Do(func() {
		if err := s.stream.Stop(); err != nil {
			s.closeErr = err
		}
		if err := s.stream.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
		s.queue.close()
		if err := portaudio.Terminate(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}
