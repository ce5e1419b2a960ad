package tui

import "newsrag/demo/client"

// Messages for the tea program

// ChatReplyMsg is sent when the server answers a chat turn.
type ChatReplyMsg struct {
	Result *client.ChatResult
	Err    error
}

// SessionClearedMsg is sent after the server session is deleted.
type SessionClearedMsg struct {
	Err error
}
