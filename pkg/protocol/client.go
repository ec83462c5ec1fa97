// ABOUTME: WebSocket client for the voice service
// ABOUTME: Handles the duplex channel lifecycle, sends and event delivery
package protocol

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNotOpen is returned by Send when the channel is not open
var ErrNotOpen = errors.New("channel not open")

const (
	// DefaultHandshakeTimeout bounds the WebSocket opening handshake
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds a single frame write
	DefaultWriteTimeout = 10 * time.Second

	// DefaultEventBuffer is the capacity of the events channel
	DefaultEventBuffer = 64

	closeGracePeriod = time.Second
)

// State is the channel state
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EventType identifies a lifecycle event
type EventType int

const (
	EventOpened EventType = iota
	EventMessage
	EventError
	EventClosed
)

func (t EventType) String() string {
	switch t {
	case EventOpened:
		return "opened"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is one channel lifecycle event
type Event struct {
	Type   EventType
	Data   []byte // EventMessage
	Err    error  // EventError
	Code   int    // EventClosed
	Reason string // EventClosed
}

// Config holds client configuration
type Config struct {
	URL              string
	Header           http.Header
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	EventBuffer      int
}

// Client is a single-use duplex channel to the voice service
type Client struct {
	config Config
	dialer *websocket.Dialer

	mu     sync.RWMutex
	state  State
	conn   *websocket.Conn
	cancel context.CancelFunc

	// writeMu serializes frame writes
	writeMu sync.Mutex

	events     chan Event
	done       chan struct{}
	finishOnce sync.Once
}

// NewClient validates the config and creates an idle client
func NewClient(config Config) (*Client, error) {
	u, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", config.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be ws or wss", config.URL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", config.URL)
	}

	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.EventBuffer == 0 {
		config.EventBuffer = DefaultEventBuffer
	}

	return &Client{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
		},
		events: make(chan Event, config.EventBuffer),
		done:   make(chan struct{}),
	}, nil
}

// Events returns the lifecycle event channel. It is closed after EventClosed.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Done is closed once the channel has fully closed
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// State returns the channel state
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// URL returns the endpoint
func (c *Client) URL() string {
	return c.config.URL
}

// Connect starts opening the channel and returns without waiting.
// ctx bounds the dial; the open channel outlives it.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("cannot connect from state %s", state)
	}
	dialCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StateConnecting
	c.mu.Unlock()

	log.Printf("Connecting to %s", c.config.URL)
	go c.dial(dialCtx)
	return nil
}

func (c *Client) dial(ctx context.Context) {
	conn, resp, err := c.dialer.DialContext(ctx, c.config.URL, c.config.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		local := c.state == StateClosed
		c.state = StateClosed
		c.mu.Unlock()
		if local {
			c.finish(websocket.CloseNormalClosure, "closed while connecting")
			return
		}
		log.Printf("Dial failed: %v", err)
		c.emit(Event{Type: EventError, Err: fmt.Errorf("dial failed: %w", err)})
		c.finish(websocket.CloseAbnormalClosure, err.Error())
		return
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Closed while dialing
		c.mu.Unlock()
		conn.Close()
		c.finish(websocket.CloseNormalClosure, "closed while connecting")
		return
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	log.Printf("Connected to %s", c.config.URL)
	c.emit(Event{Type: EventOpened})

	c.readMessages(conn)
}

// readMessages delivers inbound frames until the channel closes
func (c *Client) readMessages(conn *websocket.Conn) {
	defer conn.Close()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		switch messageType {
		case websocket.TextMessage, websocket.BinaryMessage:
			c.emit(Event{Type: EventMessage, Data: data})
		default:
			log.Printf("Unknown WebSocket message type: %d", messageType)
		}
	}
}

func (c *Client) handleReadError(err error) {
	c.mu.Lock()
	local := c.state == StateClosed
	c.state = StateClosed
	c.mu.Unlock()

	var closeErr *websocket.CloseError
	switch {
	case errors.As(err, &closeErr):
		log.Printf("Connection closed: code=%d reason=%q", closeErr.Code, closeErr.Text)
		c.finish(closeErr.Code, closeErr.Text)
	case local:
		c.finish(websocket.CloseNormalClosure, "")
	default:
		log.Printf("Read error: %v", err)
		c.emit(Event{Type: EventError, Err: err})
		c.finish(websocket.CloseAbnormalClosure, err.Error())
	}
}

// Send writes an outbound envelope if the channel is open.
// At most once: a failed or skipped send is never retried.
func (c *Client) Send(out Outbound) error {
	data, err := out.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return c.SendRaw(data)
}

// SendRaw writes a JSON text frame if the channel is open
func (c *Client) SendRaw(data []byte) error {
	c.mu.RLock()
	state, conn := c.state, c.conn
	c.mu.RUnlock()

	if state != StateOpen {
		log.Printf("Send skipped: channel %s", state)
		return ErrNotOpen
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Close closes the channel. Safe to call more than once and from any state.
func (c *Client) Close() error {
	c.mu.Lock()
	prev := c.state
	c.state = StateClosed
	conn, cancel := c.conn, c.cancel
	c.mu.Unlock()

	switch prev {
	case StateIdle:
		c.finish(websocket.CloseNormalClosure, "closed before connect")
	case StateConnecting:
		cancel()
	case StateOpen:
		c.writeMu.Lock()
		err := conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.config.WriteTimeout))
		c.writeMu.Unlock()
		if err != nil {
			log.Printf("Warning: close frame write failed: %v", err)
		}

		// Give the peer a moment to echo the close frame
		select {
		case <-c.done:
		case <-time.After(closeGracePeriod):
			conn.Close()
		}
		cancel()
	}
	return nil
}

// emit blocks until the consumer has room; Events must be drained
func (c *Client) emit(ev Event) {
	c.events <- ev
}

// finish emits the closing event and releases waiters exactly once
func (c *Client) finish(code int, reason string) {
	c.finishOnce.Do(func() {
		c.emit(Event{Type: EventClosed, Code: code, Reason: reason})
		close(c.events)
		close(c.done)
	})
}
