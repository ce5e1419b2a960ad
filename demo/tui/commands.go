package tui

import (
	"context"
	"time"

	"newsrag/demo/client"

	tea "github.com/charmbracelet/bubbletea"
)

// sendChat creates a command that runs one chat turn.
func sendChat(c *client.Client, sessionID, message string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		result, err := c.Chat(ctx, sessionID, message)
		return ChatReplyMsg{Result: result, Err: err}
	}
}

// clearSession creates a command that deletes the server-side session.
func clearSession(c *client.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return SessionClearedMsg{Err: c.DeleteSession(ctx, sessionID)}
	}
}
