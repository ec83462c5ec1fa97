// ABOUTME: Voice session lifecycle manager
// ABOUTME: Wires capture, framer, transport and playback for one conversation
package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/granthai/vaani-go/pkg/audio"
	"github.com/granthai/vaani-go/pkg/audio/capture"
	"github.com/granthai/vaani-go/pkg/audio/decode"
	"github.com/granthai/vaani-go/pkg/audio/encode"
	"github.com/granthai/vaani-go/pkg/audio/output"
	"github.com/granthai/vaani-go/pkg/protocol"
)

var (
	// ErrTransportConnect ends a session whose channel never opened
	ErrTransportConnect = errors.New("transport connect failed")

	// ErrTransportClosed ends a session whose open channel closed
	ErrTransportClosed = errors.New("transport closed")

	// ErrSessionEnded is returned when starting a session that has ended
	ErrSessionEnded = errors.New("session ended")
)

// State is the session state
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Metrics receives pipeline events
type Metrics interface {
	ChunkSent(bytes int)
	SendSkipped()
	AudioReceived(samples int)
	PayloadMalformed()
	SetPlaybackDepth(samples int)
	StateChanged(state string)
}

type nopMetrics struct{}

func (nopMetrics) ChunkSent(int) {}
func (nopMetrics) SendSkipped() {}
func (nopMetrics) AudioReceived(int) {}
func (nopMetrics) PayloadMalformed() {}
func (nopMetrics) SetPlaybackDepth(int) {}
func (nopMetrics) StateChanged(string) {}

// Config holds session configuration
type Config struct {
	// URL of the voice service (ws or wss)
	URL string

	// FlushInterval is the chunk length (default 1500ms)
	FlushInterval time.Duration

	// Capture opens the microphone
	Capture     capture.Device
	Constraints capture.Constraints

	// Output plays inbound audio
	Output output.Engine

	// Header is sent with the WebSocket handshake
	Header http.Header

	// Transport timeouts (zero uses protocol defaults)
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	Metrics Metrics

	// Callbacks (all optional)
	OnStateChange func(state State)
	OnText        func(text string)
	OnActivity    func(activity string)
	OnTurnEnd     func()
	OnError       func(err error)
	OnEnd         func(cause error)
}

// Stats is a snapshot of session counters
type Stats struct {
	ID           string
	State        State
	ChunksSent   int64
	BytesSent    int64
	SendsSkipped int64
	AudioFrames  int64
	Malformed    int64
	Turns        int64
	Capture      capture.Stats
	Playback     output.BufferStats
}

// Session is one conversation with the voice service.
// A session runs once; start a new one after it ends.
type Session struct {
	id      string
	config  Config
	encoder *encode.PCMEncoder
	decoder *decode.PCMDecoder
	sink    *output.Sink

	mu     sync.Mutex
	state  State
	source capture.Source
	client *protocol.Client
	cancel context.CancelFunc
	err     error
	closing bool
	done    chan struct{}
	wg      sync.WaitGroup

	chunksSent   atomic.Int64
	bytesSent    atomic.Int64
	sendsSkipped atomic.Int64
	audioFrames  atomic.Int64
	malformed    atomic.Int64
	turns        atomic.Int64
}

// New validates config and creates an idle session
func New(config Config) (*Session, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("voice service URL is required")
	}
	if config.Capture == nil {
		return nil, fmt.Errorf("capture device is required")
	}
	if config.Output == nil {
		return nil, fmt.Errorf("output engine is required")
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = DefaultFlushInterval
	}
	if config.FlushInterval < 0 {
		return nil, fmt.Errorf("invalid flush interval: %v", config.FlushInterval)
	}
	if config.Constraints == (capture.Constraints{}) {
		config.Constraints = capture.DefaultConstraints()
	}
	if config.Metrics == nil {
		config.Metrics = nopMetrics{}
	}

	encoder, err := encode.NewPCM(audio.CaptureFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	decoder, err := decode.NewPCM(audio.PlaybackFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Session{
		id:      uuid.New().String(),
		config:  config,
		encoder: encoder,
		decoder: decoder,
		sink:    output.NewSink(config.Output, audio.PlaybackFormat),
		done:    make(chan struct{}),
	}, nil
}

// ID returns the session UUID
func (s *Session) ID() string {
	return s.id
}

// State returns the session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the session ends
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the session ended, or nil
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Sink returns the playback sink
func (s *Session) Sink() *output.Sink {
	return s.sink
}

// Start opens capture, connects the transport and starts streaming.
// Calling Start on a started session is a no-op. Capture errors are
// returned before any connection is attempted.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle:
		s.state = StateStarting
	case StateEnded:
		s.mu.Unlock()
		return ErrSessionEnded
	default:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	s.notifyState(StateStarting)

	log.Printf("Session %s starting", s.id)

	source, err := s.config.Capture.Open(s.config.Constraints)
	if err != nil {
		err = fmt.Errorf("failed to open capture: %w", err)
		s.end(err, false)
		return err
	}

	client, err := protocol.NewClient(protocol.Config{
		URL:              s.config.URL,
		Header:           s.config.Header,
		HandshakeTimeout: s.config.HandshakeTimeout,
		WriteTimeout:     s.config.WriteTimeout,
	})
	if err != nil {
		source.Close()
		s.end(err, false)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		cancel()
		source.Close()
		s.end(ErrSessionEnded, false)
		return ErrSessionEnded
	}
	s.source = source
	s.client = client
	s.cancel = cancel
	s.mu.Unlock()

	if err := client.Connect(runCtx); err != nil {
		cancel()
		source.Close()
		s.end(err, false)
		return err
	}

	framer := NewFramer(s.encoder, client)
	framer.OnFlush = s.handleFlush

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.config.FlushInterval)
		defer ticker.Stop()
		framer.Run(runCtx, source.Frames(), ticker.C)
	}()
	go s.readEvents(client)
	go s.watchContext(runCtx, client)

	return nil
}

func (s *Session) handleFlush(bytes int, err error) {
	switch {
	case err == nil:
		s.chunksSent.Add(1)
		s.bytesSent.Add(int64(bytes))
		s.config.Metrics.ChunkSent(bytes)
	case errors.Is(err, protocol.ErrNotOpen):
		s.sendsSkipped.Add(1)
		s.config.Metrics.SendSkipped()
	default:
		s.sendsSkipped.Add(1)
		s.config.Metrics.SendSkipped()
		log.Printf("Session %s: send failed: %v", s.id, err)
		s.notifyError(err)
	}
}

// readEvents binds transport events to the decoder until the channel closes
func (s *Session) readEvents(client *protocol.Client) {
	defer s.wg.Done()

	opened := false
	var lastErr error

	for ev := range client.Events() {
		switch ev.Type {
		case protocol.EventOpened:
			opened = true
			s.transition(StateStarting, StateActive)
			log.Printf("Session %s active", s.id)

		case protocol.EventMessage:
			s.handleMessage(ev.Data)

		case protocol.EventError:
			lastErr = ev.Err
			log.Printf("Session %s: transport error: %v", s.id, ev.Err)

		case protocol.EventClosed:
			var cause error
			if opened {
				cause = fmt.Errorf("%w: code=%d reason=%q", ErrTransportClosed, ev.Code, ev.Reason)
			} else if lastErr != nil {
				cause = fmt.Errorf("%w: %v", ErrTransportConnect, lastErr)
			} else {
				cause = fmt.Errorf("%w: code=%d reason=%q", ErrTransportConnect, ev.Code, ev.Reason)
			}
			s.end(cause, true)
		}
	}
}

// watchContext closes the channel when the start context is cancelled
func (s *Session) watchContext(ctx context.Context, client *protocol.Client) {
	defer s.wg.Done()
	select {
	case <-ctx.Done():
		client.Close()
	case <-client.Done():
	}
}

func (s *Session) handleMessage(data []byte) {
	msg, err := protocol.ParseInbound(data)
	if err != nil {
		log.Printf("Session %s: %v", s.id, err)
		s.notifyError(err)
		return
	}

	if msg.Text != nil && s.config.OnText != nil {
		s.config.OnText(*msg.Text)
	}

	if msg.AssistantActivity != nil {
		log.Printf("Session %s: assistant activity: %s", s.id, *msg.AssistantActivity)
		if s.config.OnActivity != nil {
			s.config.OnActivity(*msg.AssistantActivity)
		}
	}

	if msg.ModelError != nil {
		log.Printf("Session %s: model error: %s", s.id, *msg.ModelError)
		s.notifyError(fmt.Errorf("model error: %s", *msg.ModelError))
	}

	if msg.HasAudio() {
		s.playAudio(*msg.Audio)
	}

	if msg.IsEndOfTurn() {
		s.turns.Add(1)
		if s.config.OnTurnEnd != nil {
			s.config.OnTurnEnd()
		}
	}
}

func (s *Session) playAudio(payload string) {
	frame, err := s.decoder.DecodeBase64(payload)
	if err != nil {
		s.malformed.Add(1)
		s.config.Metrics.PayloadMalformed()
		log.Printf("Session %s: dropping audio chunk: %v", s.id, err)
		return
	}

	if err := s.sink.Play(frame); err != nil {
		log.Printf("Session %s: playback error: %v", s.id, err)
		s.notifyError(err)
		return
	}

	s.audioFrames.Add(1)
	s.config.Metrics.AudioReceived(len(frame))
	s.config.Metrics.SetPlaybackDepth(s.sink.Buffer().Depth())
}

// Stop closes the transport channel. It does not stop capture; call
// StopCapture (or Close) for that.
func (s *Session) Stop() {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client != nil {
		client.Close()
	}
}

// StopCapture releases the capture device. A flush already in flight may
// still send once.
func (s *Session) StopCapture() error {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()

	if source == nil {
		return nil
	}
	return source.Close()
}

// Close stops capture and the transport, waits for the pipeline to wind
// down and releases playback
func (s *Session) Close() error {
	s.mu.Lock()
	s.closing = true
	state, client := s.state, s.client
	s.mu.Unlock()

	if state == StateIdle || (state == StateStarting && client == nil) {
		// Start has not reached the transport; it will see closing and bail
		if state == StateIdle {
			s.end(nil, false)
		}
		<-s.done
		return s.sink.Close()
	}

	if err := s.StopCapture(); err != nil {
		log.Printf("Session %s: capture close error: %v", s.id, err)
	}
	s.Stop()
	<-s.done

	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	return s.sink.Close()
}

// Stats returns a snapshot of session counters
func (s *Session) Stats() Stats {
	s.mu.Lock()
	state, source := s.state, s.source
	s.mu.Unlock()

	stats := Stats{
		ID:           s.id,
		State:        state,
		ChunksSent:   s.chunksSent.Load(),
		BytesSent:    s.bytesSent.Load(),
		SendsSkipped: s.sendsSkipped.Load(),
		AudioFrames:  s.audioFrames.Load(),
		Malformed:    s.malformed.Load(),
		Turns:        s.turns.Load(),
		Playback:     s.sink.Buffer().Stats(),
	}
	if source != nil {
		stats.Capture = source.Stats()
	}
	return stats
}

// transition moves from one state to another if the session is still in from
func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return false
	}
	s.state = to
	s.mu.Unlock()
	s.notifyState(to)
	return true
}

// end moves the session to Ended exactly once. Buffered capture samples are
// discarded by cancelling the framer.
func (s *Session) end(cause error, notify bool) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.state = StateEnded
	s.err = cause
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if cause != nil {
		log.Printf("Session %s ended: %v", s.id, cause)
	} else {
		log.Printf("Session %s ended", s.id)
	}
	s.notifyState(StateEnded)

	if notify && s.config.OnEnd != nil {
		s.config.OnEnd(cause)
	}
	close(s.done)
}

func (s *Session) notifyState(state State) {
	s.config.Metrics.StateChanged(state.String())
	if s.config.OnStateChange != nil {
		s.config.OnStateChange(state)
	}
}

func (s *Session) notifyError(err error) {
	if s.config.OnError != nil {
		s.config.OnError(err)
	}
}
