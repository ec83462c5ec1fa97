// ABOUTME: Tests for configuration loading
// ABOUTME: Tests defaults, YAML files, .env files and environment precedence
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// noEnvFile points Load at a .env file that does not exist
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestDefaults(t *testing.T) {
	config, err := Load("", noEnvFile(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if config.Client.Endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", config.Client.Endpoint)
	}
	if config.Client.FlushInterval != 1500*time.Millisecond {
		t.Errorf("expected 1500ms flush, got %v", config.Client.FlushInterval)
	}
	if config.Audio.Capture != "malgo" || config.Audio.Output != "malgo" {
		t.Errorf("unexpected audio defaults %+v", config.Audio)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "vaani.yaml", `
client:
  endpoint: ws://localhost:9000/
  flush_interval: 500ms
audio:
  capture: tone
  output: none
metrics:
  address: ":9100"
`)

	config, err := Load(path, noEnvFile(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if config.Client.Endpoint != "ws://localhost:9000/" {
		t.Errorf("unexpected endpoint %s", config.Client.Endpoint)
	}
	if config.Client.FlushInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", config.Client.FlushInterval)
	}
	if config.Audio.Capture != "tone" || config.Audio.Output != "none" {
		t.Errorf("unexpected audio %+v", config.Audio)
	}
	if config.Metrics.Address != ":9100" {
		t.Errorf("unexpected metrics address %s", config.Metrics.Address)
	}

	// Fields absent from the file keep their defaults
	if config.Audio.FramesPerBuffer != 4096 {
		t.Errorf("expected default frames per buffer, got %d", config.Audio.FramesPerBuffer)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "vaani.yaml", "client:\n  endpoint: ws://file:1/\n")

	t.Setenv(EnvEndpoint, "ws://env:2/")
	t.Setenv(EnvFlushInterval, "250")
	t.Setenv(EnvCapture, "tone")
	t.Setenv(EnvOutput, "oto")
	t.Setenv(EnvMetricsAddr, "127.0.0.1:9200")

	config, err := Load(path, noEnvFile(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if config.Client.Endpoint != "ws://env:2/" {
		t.Errorf("expected env endpoint, got %s", config.Client.Endpoint)
	}
	if config.Client.FlushInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", config.Client.FlushInterval)
	}
	if config.Audio.Capture != "tone" || config.Audio.Output != "oto" {
		t.Errorf("unexpected audio %+v", config.Audio)
	}
	if config.Metrics.Address != "127.0.0.1:9200" {
		t.Errorf("unexpected metrics address %s", config.Metrics.Address)
	}
}

func TestDotEnvFile(t *testing.T) {
	// Register cleanup, then clear so godotenv may set the variable
	t.Setenv(EnvOutput, "")
	os.Unsetenv(EnvOutput)

	envFile := writeFile(t, ".env", EnvOutput+"=none\n")

	config, err := Load("", envFile)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if config.Audio.Output != "none" {
		t.Errorf("expected output from .env, got %s", config.Audio.Output)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"1500", 1500 * time.Millisecond, false},
		{"1.5s", 1500 * time.Millisecond, false},
		{"750ms", 750 * time.Millisecond, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		got, err := parseInterval(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: expected error %v, got %v", tt.in, tt.wantErr, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"http endpoint", func(c *Config) { c.Client.Endpoint = "https://example.com" }, "ws or wss"},
		{"zero flush", func(c *Config) { c.Client.FlushInterval = 0 }, "flush_interval"},
		{"bad capture", func(c *Config) { c.Audio.Capture = "webcam" }, "capture"},
		{"bad output", func(c *Config) { c.Audio.Output = "hdmi" }, "output"},
		{"bad port", func(c *Config) { c.Echo.Port = 70000 }, "port"},
		{"discover ignores endpoint", func(c *Config) {
			c.Client.Discover = true
			c.Client.Endpoint = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t)); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestInvalidEnvInterval(t *testing.T) {
	t.Setenv(EnvFlushInterval, "later")
	if _, err := Load("", noEnvFile(t)); err == nil {
		t.Error("expected error for invalid interval")
	}
}
