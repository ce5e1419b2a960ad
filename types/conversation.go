package types

import "time"

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ConversationMessage is one entry in a session's append-only history.
type ConversationMessage struct {
	ID        string            `json:"id"`
	Role      MessageRole       `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IsDegraded reports whether this assistant message was produced by the
// fallback path rather than a genuine generation.
func (m ConversationMessage) IsDegraded() bool {
	return m.Metadata["degraded"] == "true"
}
