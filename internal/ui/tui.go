// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the voice client status panel
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries user actions from the TUI to the session
type Controls struct {
	Mute chan bool
	Quit chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Mute: make(chan bool, 10),
		Quit: make(chan struct{}, 1),
	}
}

// Info is the static session description shown in the header
type Info struct {
	SessionID     string
	Endpoint      string
	Capture       string
	Output        string
	FlushInterval string
}

// NewModel creates a new TUI model
func NewModel(ctrl *Controls, info Info) Model {
	return Model{
		info:     info,
		state:    "idle",
		controls: ctrl,
	}
}

// Run creates the TUI program; the caller runs it and feeds it StatusMsg
func Run(ctrl *Controls, info Info) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, info), tea.WithAltScreen())
}
