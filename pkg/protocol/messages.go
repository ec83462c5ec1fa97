// ABOUTME: Voice service wire message definitions
// ABOUTME: Outbound realtime_input envelopes and inbound reply envelopes
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// MimeTypePCM is the mime type of raw 16-bit little-endian PCM chunks
const MimeTypePCM = "audio/pcm"

// MediaChunk is one base64 encoded media payload
type MediaChunk struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// RealtimeInput carries media chunks to the service
type RealtimeInput struct {
	MediaChunks []MediaChunk `json:"media_chunks"`
}

// ClientMessage is the top-level wrapper for messages sent to the service
type ClientMessage struct {
	RealtimeInput *RealtimeInput `json:"realtime_input,omitempty"`
}

// Outbound is a single media chunk ready to send. Data is base64.
type Outbound struct {
	MimeType string
	Data     string
}

// NewOutbound base64-encodes raw bytes into an outbound envelope
func NewOutbound(mimeType string, raw []byte) Outbound {
	return Outbound{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}
}

// Message wraps the envelope in its wire representation
func (o Outbound) Message() ClientMessage {
	return ClientMessage{
		RealtimeInput: &RealtimeInput{
			MediaChunks: []MediaChunk{{MimeType: o.MimeType, Data: o.Data}},
		},
	}
}

// Marshal encodes the envelope as a JSON text frame
func (o Outbound) Marshal() ([]byte, error) {
	return json.Marshal(o.Message())
}

// Inbound is a message from the service. Every field is optional.
type Inbound struct {
	Text      *string `json:"text,omitempty"`
	Audio     *string `json:"audio,omitempty"`
	EndOfTurn *bool   `json:"endOfTurn,omitempty"`

	// Tool activity notices from the relay
	AssistantActivity *string `json:"assistant_activity,omitempty"`

	// Upstream model failure; the channel stays open
	ModelError *string `json:"model_error,omitempty"`
}

// ParseInbound decodes an inbound JSON message
func ParseInbound(data []byte) (Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return Inbound{}, fmt.Errorf("failed to parse inbound message: %w", err)
	}
	return msg, nil
}

// HasAudio reports whether the message carries an audio payload
func (m Inbound) HasAudio() bool {
	return m.Audio != nil && *m.Audio != ""
}

// IsEndOfTurn reports whether the service finished its turn
func (m Inbound) IsEndOfTurn() bool {
	return m.EndOfTurn != nil && *m.EndOfTurn
}

// ReadChunks extracts media chunks from a client message.
// Used by services that accept realtime_input.
func ReadChunks(data []byte) ([]MediaChunk, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse client message: %w", err)
	}
	if msg.RealtimeInput == nil {
		return nil, nil
	}
	return msg.RealtimeInput.MediaChunks, nil
}
