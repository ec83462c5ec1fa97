// ABOUTME: Configuration loading for the voice client and echo service
// ABOUTME: Merges defaults, a YAML file, .env and environment overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the hosted voice service
const DefaultEndpoint = "wss://granthai-vaani-production.up.railway.app"

// Environment variables that override file settings
const (
	EnvEndpoint      = "VAANI_ENDPOINT"
	EnvFlushInterval = "VAANI_FLUSH_INTERVAL"
	EnvCapture       = "VAANI_CAPTURE"
	EnvOutput        = "VAANI_OUTPUT"
	EnvMetricsAddr   = "VAANI_METRICS_ADDR"
)

// Config represents the complete configuration
type Config struct {
	Client  ClientConfig  `yaml:"client"`
	Audio   AudioConfig   `yaml:"audio"`
	Metrics MetricsConfig `yaml:"metrics"`
	Echo    EchoConfig    `yaml:"echo"`
}

// ClientConfig contains voice service connection settings
type ClientConfig struct {
	Endpoint         string        `yaml:"endpoint"`
	Discover         bool          `yaml:"discover"`
	DiscoverTimeout  time.Duration `yaml:"discover_timeout"`
	FlushInterval    time.Duration `yaml:"flush_interval"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// AudioConfig selects audio backends
type AudioConfig struct {
	Capture         string `yaml:"capture"` // malgo, portaudio or tone
	Output          string `yaml:"output"`  // malgo, oto, portaudio or none
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
	QueueDepth      int    `yaml:"queue_depth"`
}

// MetricsConfig contains the Prometheus listener
type MetricsConfig struct {
	Address string `yaml:"address"` // empty disables the listener
}

// EchoConfig contains echo service settings
type EchoConfig struct {
	Port        int           `yaml:"port"`
	Name        string        `yaml:"name"`
	MDNS        bool          `yaml:"mdns"`
	TurnSilence time.Duration `yaml:"turn_silence"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			Endpoint:         DefaultEndpoint,
			DiscoverTimeout:  5 * time.Second,
			FlushInterval:    1500 * time.Millisecond,
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     10 * time.Second,
		},
		Audio: AudioConfig{
			Capture:         "malgo",
			Output:          "malgo",
			FramesPerBuffer: 4096,
			QueueDepth:      64,
		},
		Echo: EchoConfig{
			Port:        8080,
			Name:        "Vaani Echo",
			MDNS:        true,
			TurnSilence: 2 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// any), the given .env files (default ".env") and the environment.
func Load(path string, envFiles ...string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	loadDotEnv(envFiles)

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadDotEnv loads .env files; a missing file is not an error
func loadDotEnv(files []string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("Warning: failed to load %s: %v", f, err)
			}
			continue
		}
		log.Printf("Loaded environment from %s", f)
	}
}

// applyEnv overrides settings from environment variables
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Client.Endpoint = v
	}
	if v := os.Getenv(EnvFlushInterval); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFlushInterval, err)
		}
		c.Client.FlushInterval = d
	}
	if v := os.Getenv(EnvCapture); v != "" {
		c.Audio.Capture = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Audio.Output = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Address = v
	}
	return nil
}

// parseInterval accepts a Go duration ("1.5s") or bare milliseconds ("1500")
func parseInterval(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q", v)
	}
	return d, nil
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client config: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Echo.Validate(); err != nil {
		return fmt.Errorf("echo config: %w", err)
	}
	return nil
}

// Validate validates client configuration
func (c *ClientConfig) Validate() error {
	if !c.Discover {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("endpoint must use ws or wss, got %q", c.Endpoint)
		}
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive, got %v", c.FlushInterval)
	}
	if c.Discover && c.DiscoverTimeout <= 0 {
		return fmt.Errorf("discover_timeout must be positive, got %v", c.DiscoverTimeout)
	}
	if c.HandshakeTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	switch a.Capture {
	case "malgo", "portaudio", "tone":
	default:
		return fmt.Errorf("capture must be malgo, portaudio or tone, got %q", a.Capture)
	}
	switch a.Output {
	case "malgo", "oto", "portaudio", "none":
	default:
		return fmt.Errorf("output must be malgo, oto, portaudio or none, got %q", a.Output)
	}
	if a.FramesPerBuffer < 1 {
		return fmt.Errorf("frames_per_buffer must be at least 1, got %d", a.FramesPerBuffer)
	}
	if a.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1, got %d", a.QueueDepth)
	}
	return nil
}

// Validate validates echo service configuration
func (e *EchoConfig) Validate() error {
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", e.Port)
	}
	if e.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if e.TurnSilence <= 0 {
		return fmt.Errorf("turn_silence must be positive, got %v", e.TurnSilence)
	}
	return nil
}
