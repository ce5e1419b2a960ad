package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case ChatReplyMsg:
		return m.handleChatReply(msg)
	case SessionClearedMsg:
		return m.handleSessionCleared(msg)
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		if m.State == StateWaiting {
			return m, nil
		}
		text := strings.TrimSpace(m.Input)
		if text == "" {
			return m, nil
		}
		m.Input = ""
		m.Err = nil

		// Slash commands are handled locally, everything else is a turn.
		switch text {
		case "/quit":
			return m, tea.Quit
		case "/sources":
			m.ShowSources = !m.ShowSources
			return m, nil
		case "/new":
			if m.SessionID == "" {
				m.Transcript = m.Transcript[:0]
				return m, nil
			}
			sessionID := m.SessionID
			m.SessionID = ""
			m.Transcript = m.Transcript[:0]
			return m, clearSession(m.AppClient, sessionID)
		}

		m.Transcript = append(m.Transcript, TranscriptEntry{Role: roleUser, Text: text})
		m.State = StateWaiting
		return m, sendChat(m.AppClient, m.SessionID, text)

	case tea.KeyBackspace:
		if len(m.Input) > 0 {
			runes := []rune(m.Input)
			m.Input = string(runes[:len(runes)-1])
		}
		return m, nil

	case tea.KeySpace:
		m.Input += " "
		return m, nil

	case tea.KeyRunes:
		m.Input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

// handleChatReply processes the server's answer
func (m Model) handleChatReply(msg ChatReplyMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.State = StateError
		m.Err = msg.Err
		return m, nil
	}

	m.SessionID = msg.Result.SessionID
	m.Transcript = append(m.Transcript, TranscriptEntry{
		Role:     roleAssistant,
		Text:     msg.Result.Response,
		Degraded: msg.Result.Degraded,
		Sources:  msg.Result.Context,
	})
	m.State = StateIdle
	return m, nil
}

// handleSessionCleared processes session deletion
func (m Model) handleSessionCleared(msg SessionClearedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.State = StateError
		m.Err = msg.Err
		return m, nil
	}
	m.State = StateIdle
	return m, nil
}
