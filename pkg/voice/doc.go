// ABOUTME: Voice session package
// ABOUTME: Connects microphone capture and playback to the voice service
// Package voice runs a duplex speech session against a voice service.
//
// A Session opens capture, connects one WebSocket channel and streams
// PCM16LE chunks every FlushInterval while playing the audio the service
// sends back. Sessions move Idle → Starting → Active → Ended and never
// restart; a closed or failed channel ends the session and OnEnd reports
// ErrTransportClosed or ErrTransportConnect.
//
// Stop closes the channel only. Capture keeps running until StopCapture or
// Close, so callers should stop capture from OnEnd.
//
// Example:
//
//	sess, err := voice.New(voice.Config{
//	    URL:     "wss://granthai-vaani-production.up.railway.app",
//	    Capture: capture.NewMalgo(),
//	    Output:  output.NewMalgo(),
//	    OnEnd:   func(err error) { ... },
//	})
//	err = sess.Start(ctx)
//	defer sess.Close()
package voice
