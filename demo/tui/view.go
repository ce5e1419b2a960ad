package tui

import (
	"fmt"
	"strings"

	"newsrag/demo/client"
)

// maxTranscriptLines bounds how much history the terminal renders.
const maxTranscriptLines = 20

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	// Title
	b.WriteString(TitleStyle.Render("📰 News Chat"))
	b.WriteString("\n")

	if m.SessionID != "" {
		b.WriteString(InfoStyle.Render("session: " + m.SessionID))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Transcript
	entries := m.Transcript
	if len(entries) > maxTranscriptLines {
		entries = entries[len(entries)-maxTranscriptLines:]
	}
	for _, entry := range entries {
		switch entry.Role {
		case roleUser:
			b.WriteString(UserStyle.Render("you> "))
			b.WriteString(entry.Text)
		case roleAssistant:
			b.WriteString(AssistantStyle.Render("bot> " + entry.Text))
			if entry.Degraded {
				b.WriteString(" ")
				b.WriteString(ErrorStyle.Render("(degraded)"))
			}
			if m.ShowSources && len(entry.Sources) > 0 {
				b.WriteString("\n")
				b.WriteString(SourceBoxStyle.Render(formatSources(entry.Sources)))
			}
		}
		b.WriteString("\n")
	}

	// State line
	switch m.State {
	case StateWaiting:
		b.WriteString(InfoStyle.Render("⏳ Thinking..."))
		b.WriteString("\n")
	case StateError:
		errMsg := "Unknown error"
		if m.Err != nil {
			errMsg = m.Err.Error()
		}
		b.WriteString(ErrorStyle.Render("❌ " + errMsg))
		b.WriteString("\n")
	}

	// Input line
	b.WriteString("\n")
	b.WriteString(PromptStyle.Render("> "))
	b.WriteString(m.Input)
	b.WriteString("█\n\n")

	// Help text
	b.WriteString(InfoStyle.Render("/new clears session | /sources toggles citations | /quit or Ctrl+C exits"))
	b.WriteString("\n")

	return b.String()
}

// formatSources renders the citation panel under an answer.
func formatSources(sources []client.ContextResult) string {
	var b strings.Builder
	b.WriteString("Sources:\n")
	for i, src := range sources {
		line := fmt.Sprintf("%d. %s", i+1, src.Attribution.Title)
		if src.Attribution.Source != "" {
			line += " (" + src.Attribution.Source + ")"
		}
		if !src.Attribution.PublishedDate.IsZero() {
			line += " " + src.Attribution.PublishedDate.Format("2006-01-02")
		}
		b.WriteString(line)
		if i < len(sources)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
