// ABOUTME: Entry point for the Vaani voice client
// ABOUTME: Parses CLI flags, streams the microphone and plays service replies
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/granthai/vaani-go/internal/config"
	"github.com/granthai/vaani-go/internal/discovery"
	"github.com/granthai/vaani-go/internal/metrics"
	"github.com/granthai/vaani-go/internal/ui"
	"github.com/granthai/vaani-go/internal/version"
	"github.com/granthai/vaani-go/pkg/audio/capture"
	"github.com/granthai/vaani-go/pkg/audio/output"
	"github.com/granthai/vaani-go/pkg/voice"
)

var (
	configPath  = flag.String("config", "", "YAML config file")
	endpoint    = flag.String("endpoint", "", "Voice service WebSocket URL (overrides config)")
	discover    = flag.Bool("discover", false, "Find a local echo service over mDNS")
	flushMs     = flag.Int("flush-ms", 0, "Chunk length in milliseconds (default 1500)")
	captureName = flag.String("capture", "", "Capture backend: malgo, portaudio or tone")
	outputName  = flag.String("output", "", "Output backend: malgo, oto, portaudio or none")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	logFile     = flag.String("log-file", "vaani.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	url := cfg.Client.Endpoint
	if cfg.Client.Discover {
		url, err = discoverEndpoint(cfg.Client.DiscoverTimeout)
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
	}

	device, err := captureDevice(cfg.Audio.Capture)
	if err != nil {
		log.Fatalf("%v", err)
	}
	engine, err := outputEngine(cfg.Audio.Output)
	if err != nil {
		log.Fatalf("%v", err)
	}

	m := metrics.New()
	var metricsServer *http.Server
	if cfg.Metrics.Address != "" {
		metricsServer = serveMetrics(cfg.Metrics.Address, m)
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	if useTUI {
		controls = ui.NewControls()
		tuiProg = ui.Run(controls, ui.Info{
			Endpoint:      url,
			Capture:       cfg.Audio.Capture,
			Output:        cfg.Audio.Output,
			FlushInterval: cfg.Client.FlushInterval.String(),
		})
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	var session *voice.Session
	session, err = voice.New(voice.Config{
		URL:           url,
		FlushInterval: cfg.Client.FlushInterval,
		Capture:       device,
		Constraints: capture.Constraints{
			FramesPerBuffer: cfg.Audio.FramesPerBuffer,
			QueueDepth:      cfg.Audio.QueueDepth,
		},
		Output:           engine,
		Header:           http.Header{"User-Agent": []string{version.UserAgent()}},
		HandshakeTimeout: cfg.Client.HandshakeTimeout,
		WriteTimeout:     cfg.Client.WriteTimeout,
		Metrics:          m,
		OnStateChange: func(state voice.State) {
			log.Printf("Session state: %s", state)
			updateTUI(ui.StatusMsg{State: state.String()})
		},
		OnText: func(text string) {
			log.Printf("Service: %s", text)
			updateTUI(ui.StatusMsg{Text: text})
		},
		OnActivity: func(activity string) {
			updateTUI(ui.StatusMsg{Activity: activity})
		},
		OnError: func(err error) {
			log.Printf("Session error: %v", err)
			updateTUI(ui.StatusMsg{Error: err.Error()})
		},
		OnEnd: func(cause error) {
			// The transport is gone; nothing else will consume the microphone
			if err := session.StopCapture(); err != nil {
				log.Printf("Error stopping capture: %v", err)
			}
			log.Printf("Session ended: %v", cause)
			updateTUI(ui.StatusMsg{Error: describeEnd(cause)})
		},
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	updateTUI(ui.StatusMsg{SessionID: session.ID()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := session.Start(ctx); err != nil {
		if tuiProg != nil {
			tuiProg.Quit()
		}
		log.Fatalf("Failed to start session: %v", err)
	}

	if controls != nil {
		go handleControls(ctx, session, controls)
	}
	go statsUpdateLoop(ctx, session, m, updateTUI)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan struct{}
	if controls != nil {
		quit = controls.Quit
	}

	select {
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case <-session.Done():
		if !useTUI {
			fmt.Fprintf(os.Stderr, "%s\n", describeEnd(session.Err()))
		} else {
			// Leave the panel up so the cause can be read
			select {
			case <-quit:
			case <-sigChan:
			}
		}
	}

	cancel()
	if err := session.Close(); err != nil {
		log.Printf("Error closing session: %v", err)
	}
	if tuiProg != nil {
		tuiProg.Quit()
	}
	if metricsServer != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}
	}

	log.Printf("Client stopped")
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	if *endpoint != "" {
		cfg.Client.Endpoint = *endpoint
	}
	if *discover {
		cfg.Client.Discover = true
	}
	if *flushMs > 0 {
		cfg.Client.FlushInterval = time.Duration(*flushMs) * time.Millisecond
	}
	if *captureName != "" {
		cfg.Audio.Capture = *captureName
	}
	if *outputName != "" {
		cfg.Audio.Output = *outputName
	}
	if *metricsAddr != "" {
		cfg.Metrics.Address = *metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func discoverEndpoint(timeout time.Duration) (string, error) {
	log.Printf("Starting echo service discovery...")
	disc := discovery.NewManager(discovery.Config{QueryTimeout: timeout})
	defer disc.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
	defer cancel()

	svc, err := disc.Discover(ctx)
	if err != nil {
		return "", err
	}
	log.Printf("Discovered %s at %s", svc.Name, svc.URL())
	return svc.URL(), nil
}

func captureDevice(name string) (capture.Device, error) {
	switch name {
	case "malgo":
		return capture.NewMalgo(), nil
	case "portaudio":
		return capture.NewPortAudio(), nil
	case "tone":
		return capture.NewTone(), nil
	default:
		return nil, fmt.Errorf("unknown capture backend: %s", name)
	}
}

func outputEngine(name string) (output.Engine, error) {
	switch name {
	case "malgo":
		return output.NewMalgo(), nil
	case "oto":
		return output.NewOto(), nil
	case "portaudio":
		return output.NewPortAudio(), nil
	case "none":
		return output.NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s", name)
	}
}

func serveMetrics(addr string, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Printf("Metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	return srv
}

// handleControls applies TUI actions to the session
func handleControls(ctx context.Context, session *voice.Session, controls *ui.Controls) {
	for {
		select {
		case muted := <-controls.Mute:
			log.Printf("Speaker muted=%v", muted)
			session.Sink().SetMuted(muted)
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically publishes session counters
func statsUpdateLoop(ctx context.Context, session *voice.Session, m *metrics.Metrics, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := session.Stats()
			m.CaptureStats(stats.Capture.Captured, stats.Capture.Dropped)

			updateTUI(ui.StatusMsg{
				Stats: &ui.Stats{
					ChunksSent:   stats.ChunksSent,
					BytesSent:    stats.BytesSent,
					SendsSkipped: stats.SendsSkipped,
					AudioFrames:  stats.AudioFrames,
					Malformed:    stats.Malformed,
					Turns:        stats.Turns,
					Captured:     stats.Capture.Captured,
					Dropped:      stats.Capture.Dropped,
					BufferDepth:  stats.Playback.Depth,
					Underruns:    stats.Playback.Underruns,
				},
			})
		}
	}
}

func describeEnd(cause error) string {
	switch {
	case errors.Is(cause, voice.ErrTransportConnect):
		return "could not connect to the voice service"
	case errors.Is(cause, voice.ErrTransportClosed):
		return "voice service closed the connection"
	case cause == nil:
		return "session ended"
	default:
		return cause.Error()
	}
}
