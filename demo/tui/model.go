package tui

import (
	"newsrag/demo/client"

	tea "github.com/charmbracelet/bubbletea"
)

// State represents the application state machine
type State string

const (
	StateIdle    State = "idle"
	StateWaiting State = "waiting"
	StateError   State = "error"
)

// Transcript roles
const (
	roleUser      = "you"
	roleAssistant = "bot"
)

// TranscriptEntry is one rendered line of the conversation.
type TranscriptEntry struct {
	Role     string
	Text     string
	Degraded bool
	Sources  []client.ContextResult
}

// Model represents the chat TUI state.
type Model struct {
	AppClient *client.Client

	State      State
	SessionID  string
	Transcript []TranscriptEntry
	Input      string
	Err        error

	// ShowSources toggles the per-answer source panel.
	ShowSources bool
}

// NewModel creates a new TUI model
func NewModel(serverURL string) Model {
	return Model{
		AppClient:   client.NewClient(serverURL),
		State:       StateIdle,
		Transcript:  make([]TranscriptEntry, 0),
		ShowSources: true,
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return nil
}
