// ABOUTME: Local echo service speaking the voice wire protocol
// ABOUTME: Accepts realtime_input audio and replies with 24 kHz audio turns
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/granthai/vaani-go/internal/discovery"
	"github.com/granthai/vaani-go/internal/metrics"
	"github.com/granthai/vaani-go/pkg/audio"
	"github.com/granthai/vaani-go/pkg/audio/decode"
	"github.com/granthai/vaani-go/pkg/audio/encode"
	"github.com/granthai/vaani-go/pkg/audio/resample"
	"github.com/granthai/vaani-go/pkg/protocol"
)

const (
	// DefaultTurnSilence ends a turn after this long without input
	DefaultTurnSilence = 2 * time.Second

	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	sendQueueSize = 100
)

// Config holds server configuration
type Config struct {
	Port        int
	Name        string
	EnableMDNS  bool
	TurnSilence time.Duration
	Debug       bool
}

// Server is the echo service
type Server struct {
	config   Config
	serverID string

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	metrics     *metrics.ServerMetrics
	mdnsManager *discovery.Manager

	conns   map[string]*connection
	connsMu sync.RWMutex

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// connection is one connected voice client
type connection struct {
	id        string
	conn      *websocket.Conn
	decoder   *decode.PCMDecoder
	resampler *resample.Resampler

	sendChan chan reply
	done     chan struct{}
}

// reply is one outbound message with its playout duration
type reply struct {
	msg      protocol.Inbound
	duration time.Duration
	received time.Time
}

// New creates a new server instance
func New(config Config) *Server {
	if config.TurnSilence == 0 {
		config.TurnSilence = DefaultTurnSilence
	}
	if config.Name == "" {
		config.Name = "Vaani Echo"
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		metrics:  metrics.NewServer(),
		upgrader: websocket.Upgrader{
			// Local development service; browser clients are allowed from any origin
			CheckOrigin: func(r *http.Request) bool {
				if origin := r.Header.Get("Origin"); origin != "" && config.Debug {
					log.Printf("[DEBUG] Accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		conns:    make(map[string]*connection),
		stopChan: make(chan struct{}),
	}

	s.mux.HandleFunc("/", s.handleWebSocket)
	s.mux.HandleFunc("/healthz", handleHealth)
	s.mux.HandleFunc("/health", handleHealth)
	s.mux.Handle("/metrics", s.metrics.Handler())

	return s
}

// Handler returns the HTTP handler serving websocket, health and metrics
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Metrics returns the service metrics
func (s *Server) Metrics() *metrics.ServerMetrics {
	return s.metrics
}

// Connections returns the number of connected clients
func (s *Server) Connections() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// Start listens on the configured port and blocks until Stop
func (s *Server) Start() error {
	log.Printf("Echo service starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        "/",
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Echo service shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Echo service stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// shutdown rejects new connections and closes the open ones.
// Hijacked websocket connections are not closed by http.Server.Shutdown.
func (s *Server) shutdown() {
	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	s.isShutdown = true

	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	for _, c := range s.conns {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.conn.Close()
	}
}

// Close shuts down open connections without a listener; used with Handler
func (s *Server) Close() {
	s.shutdown()
	s.wg.Wait()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK\n"))
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// wg.Add happens under the read lock so it never races the final Wait
	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.shutdownMu.RUnlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.handleConnection(conn)
}

// handleConnection manages one client connection
func (s *Server) handleConnection(wsConn *websocket.Conn) {
	defer wsConn.Close()

	decoder, err := decode.NewPCM(audio.CaptureFormat)
	if err != nil {
		log.Printf("Error creating decoder: %v", err)
		return
	}

	c := &connection{
		id:        uuid.New().String(),
		conn:      wsConn,
		decoder:   decoder,
		resampler: resample.New(audio.CaptureSampleRate, audio.PlaybackSampleRate),
		sendChan:  make(chan reply, sendQueueSize),
		done:      make(chan struct{}),
	}

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.connsMu.Lock()
	s.conns[c.id] = c
	s.connsMu.Unlock()
	s.shutdownMu.RUnlock()
	s.metrics.Connections.Inc()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.clientWriter(c)
	}()

	defer func() {
		close(c.done)
		<-writerDone

		s.connsMu.Lock()
		delete(s.conns, c.id)
		s.connsMu.Unlock()
		s.metrics.Connections.Dec()
		log.Printf("Client disconnected: %s", c.id)
	}()

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		s.handleClientMessage(c, data)
	}
}

// handleClientMessage decodes realtime_input chunks and queues echo replies
func (s *Server) handleClientMessage(c *connection, data []byte) {
	received := time.Now()

	chunks, err := protocol.ReadChunks(data)
	if err != nil {
		s.metrics.InvalidMessages.Inc()
		log.Printf("Client %s: %v", c.id, err)
		return
	}

	for _, chunk := range chunks {
		if chunk.MimeType != protocol.MimeTypePCM {
			s.metrics.InvalidMessages.Inc()
			log.Printf("Client %s: unsupported mime type %q", c.id, chunk.MimeType)
			continue
		}

		frame, err := c.decoder.DecodeBase64(chunk.Data)
		if err != nil {
			s.metrics.InvalidMessages.Inc()
			log.Printf("Client %s: dropping chunk: %v", c.id, err)
			continue
		}

		s.metrics.ChunksReceived.Inc()
		s.metrics.BytesReceived.Add(float64(len(frame) * audio.BytesPerSample))

		out := c.resampler.Resample(frame)
		if len(out) == 0 {
			continue
		}

		payload := protocol.NewOutbound(protocol.MimeTypePCM, encode.AppendPCM16(nil, out)).Data
		r := reply{
			msg:      protocol.Inbound{Audio: &payload},
			duration: time.Duration(len(out)) * time.Second / audio.PlaybackSampleRate,
			received: received,
		}

		select {
		case c.sendChan <- r:
		default:
			log.Printf("Client %s: send queue full, dropping reply", c.id)
		}

		if s.config.Debug {
			log.Printf("[DEBUG] Client %s: chunk %d samples -> %d samples", c.id, len(frame), len(out))
		}
	}
}

// clientWriter is the only writer on the connection. Replies are paced by
// their real-time duration and a turn ends after TurnSilence without input.
func (s *Server) clientWriter(c *connection) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	turn := time.NewTimer(s.config.TurnSilence)
	turn.Stop()
	defer turn.Stop()

	var (
		next       time.Time // when the previous reply finishes playing
		turnAudio  time.Duration
		turnActive bool
	)

	for {
		select {
		case <-c.done:
			return

		case r := <-c.sendChan:
			if wait := time.Until(next); wait > 0 {
				select {
				case <-time.After(wait):
				case <-c.done:
					return
				}
			}

			if err := s.writeJSON(c, r.msg); err != nil {
				log.Printf("Error writing reply: %v", err)
				return
			}
			s.metrics.RepliesSent.Inc()
			s.metrics.ReplyLatency.Observe(time.Since(r.received).Seconds())

			now := time.Now()
			if next.Before(now) {
				next = now
			}
			next = next.Add(r.duration)

			turnAudio += r.duration
			turnActive = true
			turn.Reset(s.config.TurnSilence)

		case <-turn.C:
			if !turnActive {
				continue
			}
			text := fmt.Sprintf("heard %.1fs of audio", turnAudio.Seconds())
			end := true
			if err := s.writeJSON(c, protocol.Inbound{Text: &text, EndOfTurn: &end}); err != nil {
				log.Printf("Error writing end of turn: %v", err)
				return
			}
			s.metrics.TurnsEnded.Inc()
			turnAudio = 0
			turnActive = false

		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeJSON(c *connection, msg protocol.Inbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}
