// ABOUTME: Test tone capture source
// ABOUTME: Generates a paced sine wave in place of a microphone
package capture

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/granthai/vaani-go/pkg/audio"
)

// Tone is a synthetic capture device producing a sine wave
type Tone struct {
	// Frequency in Hz (default 440)
	Frequency float64

	// Amplitude in [0, 1] (default 0.5)
	Amplitude float64

	// Interval between frames. Zero paces frames in real time.
	Interval time.Duration
}

// NewTone creates a 440Hz test tone device paced in real time
func NewTone() *Tone {
	return &Tone{Frequency: 440.0, Amplitude: 0.5}
}

// ToneSource is an open test tone stream
type ToneSource struct {
	format      audio.Format
	frequency   float64
	amplitude   float64
	frameSize   int
	sampleIndex uint64
	queue       *queue

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open starts generating frames
func (t *Tone) Open(c Constraints) (Source, error) {
	c, err := c.withDefaults()
	if err != nil {
		return nil, err
	}

	freq := t.Frequency
	if freq == 0 {
		freq = 440.0
	}
	amp := t.Amplitude
	if amp == 0 {
		amp = 0.5
	}
	interval := t.Interval
	if interval == 0 {
		interval = time.Duration(c.FramesPerBuffer) * time.Second / time.Duration(c.SampleRate)
	}

	s := &ToneSource{
		format:    audio.Format{SampleRate: c.SampleRate, Channels: c.Channels},
		frequency: freq,
		amplitude: amp,
		frameSize: c.FramesPerBuffer,
		queue:     newQueue(c.QueueDepth),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	go s.run(interval)

	log.Printf("Test tone capture started: %.0fHz at %dHz, %d samples every %v",
		freq, c.SampleRate, c.FramesPerBuffer, interval)
	return s, nil
}

func (s *ToneSource) run(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.queue.push(s.nextFrame())
		case <-s.stop:
			return
		}
	}
}

// nextFrame generates the next block of the sine wave
func (s *ToneSource) nextFrame() audio.Frame {
	frame := make(audio.Frame, s.frameSize)
	for i := range frame {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.format.SampleRate)
		frame[i] = float32(s.amplitude * math.Sin(2*math.Pi*s.frequency*t))
	}
	s.sampleIndex += uint64(s.frameSize)
	return frame
}

// Frames returns the frame sequence
func (s *ToneSource) Frames() <-chan audio.Frame {
	return s.queue.frames
}

// Format returns the capture format
func (s *ToneSource) Format() audio.Format {
	return s.format
}

// Stats returns capture counters
func (s *ToneSource) Stats() Stats {
	return s.queue.stats()
}

// Close stops the generator
func (s *ToneSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.queue.close()
	})
	return nil
}
