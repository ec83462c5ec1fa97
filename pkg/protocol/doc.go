// ABOUTME: Voice service wire protocol package
// ABOUTME: Defines protocol messages and the duplex WebSocket client
// Package protocol implements the voice service wire protocol.
//
// The client holds one persistent WebSocket channel. Connect returns
// immediately; lifecycle events (Opened, Message, Error, Closed) arrive in
// order on the Events channel, which is closed after the Closed event.
//
// Send writes only while the channel is open. Otherwise it logs, performs no
// write and returns ErrNotOpen. There is no queueing, retry or reconnect.
//
// Example:
//
//	client, err := protocol.NewClient(protocol.Config{URL: "wss://host"})
//	err = client.Connect(ctx)
//	for ev := range client.Events() {
//	    ...
//	}
package protocol
