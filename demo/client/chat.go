package client

import (
	"context"
	"net/http"
	"time"
)

// SourceAttribution identifies one article excerpt backing an answer.
type SourceAttribution struct {
	Title         string    `json:"title"`
	Source        string    `json:"source,omitempty"`
	URL           string    `json:"url,omitempty"`
	PublishedDate time.Time `json:"published_date,omitempty"`
}

// ContextResult is one retrieved excerpt returned alongside a chat reply.
type ContextResult struct {
	Score       float32           `json:"score"`
	Snippet     string            `json:"snippet"`
	Attribution SourceAttribution `json:"attribution"`
}

// ChatResult is the assistant's reply for one turn.
type ChatResult struct {
	SessionID string          `json:"session_id"`
	Response  string          `json:"response"`
	Degraded  bool            `json:"degraded,omitempty"`
	Context   []ContextResult `json:"context,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Chat sends one chat turn. An empty sessionID starts a new conversation;
// the server's session ID comes back in the result.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	payload := map[string]interface{}{
		"message": message,
	}
	if sessionID != "" {
		payload["session_id"] = sessionID
	}

	var result ChatResult
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/chat", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteSession clears the conversation history on the server.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.doJSONRequest(ctx, http.MethodDelete, "/api/sessions/"+sessionID, nil, nil)
}
