// ABOUTME: Tests for voice service message types
// ABOUTME: Verifies the outbound wire shape and inbound parsing
package protocol

import (
	"encoding/base64"
	"testing"
)

func TestOutboundWireFormat(t *testing.T) {
	out := NewOutbound(MimeTypePCM, []byte{0x00, 0x80, 0x00, 0x7F})

	data, err := out.Marshal()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	want := `{"realtime_input":{"media_chunks":[{"mime_type":"audio/pcm","data":"AIAAfw=="}]}}`
	if string(data) != want {
		t.Errorf("unexpected wire format:\n got: %s\nwant: %s", data, want)
	}
}

func TestNewOutboundEncodesBase64(t *testing.T) {
	raw := make([]byte, 48000)
	for i := range raw {
		raw[i] = byte(i)
	}

	out := NewOutbound(MimeTypePCM, raw)
	decoded, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	if len(decoded) != 48000 {
		t.Errorf("expected 48000 bytes, got %d", len(decoded))
	}
}

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantText    string
		wantAudio   bool
		wantEnd     bool
		wantErrText string
	}{
		{name: "text", data: `{"text":"hello"}`, wantText: "hello"},
		{name: "audio", data: `{"audio":"AIAAfw=="}`, wantAudio: true},
		{name: "empty audio", data: `{"audio":""}`},
		{name: "end of turn", data: `{"endOfTurn":true}`, wantEnd: true},
		{name: "end of turn false", data: `{"endOfTurn":false}`},
		{name: "model error", data: `{"model_error":"quota"}`, wantErrText: "quota"},
		{name: "unknown fields", data: `{"other":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseInbound([]byte(tt.data))
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if tt.wantText != "" && (msg.Text == nil || *msg.Text != tt.wantText) {
				t.Errorf("expected text %q, got %v", tt.wantText, msg.Text)
			}
			if msg.HasAudio() != tt.wantAudio {
				t.Errorf("expected HasAudio %v", tt.wantAudio)
			}
			if msg.IsEndOfTurn() != tt.wantEnd {
				t.Errorf("expected IsEndOfTurn %v", tt.wantEnd)
			}
			if tt.wantErrText != "" && (msg.ModelError == nil || *msg.ModelError != tt.wantErrText) {
				t.Errorf("expected model error %q, got %v", tt.wantErrText, msg.ModelError)
			}
		})
	}
}

func TestParseInboundInvalid(t *testing.T) {
	if _, err := ParseInbound([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestReadChunks(t *testing.T) {
	data, err := NewOutbound(MimeTypePCM, []byte{1, 2}).Marshal()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	chunks, err := ReadChunks(data)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].MimeType != MimeTypePCM {
		t.Errorf("unexpected chunks %+v", chunks)
	}

	chunks, err = ReadChunks([]byte(`{}`))
	if err != nil || chunks != nil {
		t.Errorf("expected no chunks, got %v, %v", chunks, err)
	}
}
