// ABOUTME: Bubbletea model for the voice client TUI
// ABOUTME: Defines session status state and update logic
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// playbackRate converts buffered samples to milliseconds
const playbackRate = 24000

// Model represents the TUI state
type Model struct {
	info     Info
	controls *Controls

	// Session
	state     string
	lastText  string
	activity  string
	lastError string

	// Playback
	muted       bool
	bufferDepth int // samples
	underruns   int64

	// Stats
	chunksSent   int64
	bytesSent    int64
	sendsSkipped int64
	audioFrames  int64
	malformed    int64
	turns        int64
	captured     int64
	dropped      int64

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state. Zero fields are left unchanged.
type StatusMsg struct {
	State     string
	Text      string
	Activity  string
	Error     string
	Muted     *bool
	Stats     *Stats
	SessionID string
}

// Stats is a counter snapshot for the TUI
type Stats struct {
	ChunksSent   int64
	BytesSent    int64
	SendsSkipped int64
	AudioFrames  int64
	Malformed    int64
	Turns        int64
	Captured     int64
	Dropped      int64
	BufferDepth  int
	Underruns    int64
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderConversation()
	s += m.renderPlayback()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders session status
func (m Model) renderHeader() string {
	icon := "○"
	switch m.state {
	case "active":
		icon = "●"
	case "starting":
		icon = "◌"
	case "ended":
		icon = "✗"
	}

	return fmt.Sprintf(`┌─ Vaani ──────────────────────────────────────────────┐
│ Session: %s %-42s │
│ Service: %-43s │
├──────────────────────────────────────────────────────┤
`, icon, truncate(m.state, 42), truncate(m.info.Endpoint, 43))
}

// renderConversation renders the latest service text and activity
func (m Model) renderConversation() string {
	s := ""
	if m.lastText == "" && m.activity == "" {
		s += "│ Listening...                                         │\n"
	} else {
		if m.lastText != "" {
			s += fmt.Sprintf("│ Said:     %-42s │\n", truncate(oneLine(m.lastText), 42))
		}
		if m.activity != "" {
			s += fmt.Sprintf("│ Activity: %-42s │\n", truncate(oneLine(m.activity), 42))
		}
	}
	if m.lastError != "" {
		s += fmt.Sprintf("│ Error:    %-42s │\n", truncate(oneLine(m.lastError), 42))
	}
	return s
}

// renderPlayback renders mute and buffer status
func (m Model) renderPlayback() string {
	muteText := "on"
	if m.muted {
		muteText = "muted"
	}

	return fmt.Sprintf("│                                                      │\n"+
		"│ Speaker: %-43s │\n"+
		"│ Buffer:  %-43s │\n",
		muteText,
		fmt.Sprintf("%dms queued, %d underruns", bufferMillis(m.bufferDepth), m.underruns))
}

// renderStats renders pipeline counters
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ TX: %-48s │
│ RX: %-48s │
│ Mic: %-47s │
`,
		fmt.Sprintf("%d chunks (%s), %d skipped", m.chunksSent, formatBytes(m.bytesSent), m.sendsSkipped),
		fmt.Sprintf("%d audio, %d malformed, %d turns", m.audioFrames, m.malformed, m.turns),
		fmt.Sprintf("%d frames, %d dropped", m.captured, m.dropped))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ m:Mute  d:Debug  q:Quit                              │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Session: %-41s │
│   Capture: %-41s │
│   Output:  %-41s │
│   Flush:   %-41s │
`, truncate(m.info.SessionID, 41), m.info.Capture, m.info.Output, m.info.FlushInterval)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "m":
		m.muted = !m.muted
		if m.controls != nil {
			select {
			case m.controls.Mute <- m.muted:
			default:
			}
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.SessionID != "" {
		m.info.SessionID = msg.SessionID
	}
	if msg.Text != "" {
		m.lastText = msg.Text
	}
	if msg.Activity != "" {
		m.activity = msg.Activity
	}
	if msg.Error != "" {
		m.lastError = msg.Error
	}
	if msg.Muted != nil {
		m.muted = *msg.Muted
	}
	if st := msg.Stats; st != nil {
		m.chunksSent = st.ChunksSent
		m.bytesSent = st.BytesSent
		m.sendsSkipped = st.SendsSkipped
		m.audioFrames = st.AudioFrames
		m.malformed = st.Malformed
		m.turns = st.Turns
		m.captured = st.Captured
		m.dropped = st.Dropped
		m.bufferDepth = st.BufferDepth
		m.underruns = st.Underruns
	}
}

// Utility functions
func bufferMillis(samples int) int {
	return samples * 1000 / playbackRate
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
