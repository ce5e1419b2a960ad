package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"newsrag/types"
)

func msg(role types.MessageRole, content string) types.ConversationMessage {
	return types.ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func TestAssembleWithinBudget(t *testing.T) {
	a := NewAssembler(nil)
	history := []types.ConversationMessage{
		msg(types.RoleUser, "hello"),
		msg(types.RoleAssistant, "hi there"),
	}

	got := a.Assemble(history, 1000)
	if len(got.Messages) != 2 {
		t.Fatalf("expected full history kept, got %d messages", len(got.Messages))
	}
	if got.TrimmedCount != 0 {
		t.Errorf("TrimmedCount = %d, want 0", got.TrimmedCount)
	}
}

func TestAssembleTrimsOldestFirst(t *testing.T) {
	a := NewAssembler(nil)

	var history []types.ConversationMessage
	for i := 0; i < 10; i++ {
		// 40 chars each, ~10 tokens under the default estimator.
		history = append(history, msg(types.RoleUser, fmt.Sprintf("message number %02d %s", i, strings.Repeat("x", 21))))
	}

	got := a.Assemble(history, 35)
	if len(got.Messages) == 0 || len(got.Messages) >= len(history) {
		t.Fatalf("expected partial keep, got %d of %d", len(got.Messages), len(history))
	}

	// The kept slice must be the newest suffix, in chronological order.
	offset := len(history) - len(got.Messages)
	for i, m := range got.Messages {
		if m.Content != history[offset+i].Content {
			t.Errorf("kept[%d] = %q, want %q", i, m.Content, history[offset+i].Content)
		}
	}
	if got.TrimmedCount != offset {
		t.Errorf("TrimmedCount = %d, want %d", got.TrimmedCount, offset)
	}
	if got.TotalTokens > 35 {
		t.Errorf("TotalTokens %d exceeds budget 35", got.TotalTokens)
	}
}

func TestAssembleZeroBudget(t *testing.T) {
	a := NewAssembler(nil)
	history := []types.ConversationMessage{msg(types.RoleUser, "anything")}

	got := a.Assemble(history, 0)
	if len(got.Messages) != 0 {
		t.Errorf("expected nothing kept on zero budget, got %d", len(got.Messages))
	}
	if got.TrimmedCount != 1 {
		t.Errorf("TrimmedCount = %d, want 1", got.TrimmedCount)
	}
}

func TestAssembleCustomEstimator(t *testing.T) {
	// A unit-cost estimator makes the budget a plain message count.
	a := NewAssembler(func(string) int { return 1 })
	history := []types.ConversationMessage{
		msg(types.RoleUser, "one"),
		msg(types.RoleAssistant, "two"),
		msg(types.RoleUser, "three"),
	}

	got := a.Assemble(history, 2)
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(got.Messages))
	}
	if got.Messages[0].Content != "two" || got.Messages[1].Content != "three" {
		t.Errorf("kept wrong messages: %q, %q", got.Messages[0].Content, got.Messages[1].Content)
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.content); got != tc.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}

func TestShouldUseContext(t *testing.T) {
	ic := DefaultIntentClassifier()

	cases := []struct {
		message string
		want    bool
	}{
		{"How are you today?", false},
		{"Thanks, that helps!", false},
		{"What is the latest news on AI?", true},
		{"Tell me about the semiconductor shortage", true},
		{"Who won the election?", true},
		{"Any updates on the merger?", true},
		{"good morning", false},
	}
	for _, tc := range cases {
		if got := ic.ShouldUseContext(tc.message, nil); got != tc.want {
			t.Errorf("ShouldUseContext(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}

func TestShouldUseContextFromRecentHistory(t *testing.T) {
	ic := DefaultIntentClassifier()

	history := []types.ConversationMessage{
		msg(types.RoleUser, "What's the latest news on the trade deal?"),
		msg(types.RoleAssistant, "Here is a summary of the trade deal coverage."),
	}
	if !ic.ShouldUseContext("and the European reaction?", history) {
		t.Error("expected retrieval when a recent user turn sought information")
	}

	// The lookback is bounded to the last three user turns.
	old := []types.ConversationMessage{msg(types.RoleUser, "latest news please")}
	for i := 0; i < 4; i++ {
		old = append(old, msg(types.RoleUser, "ok"), msg(types.RoleAssistant, "sure"))
	}
	if ic.ShouldUseContext("alright", old) {
		t.Error("info-seeking turn beyond the lookback window should not trigger retrieval")
	}
}

func TestEnhanceQueryPassthrough(t *testing.T) {
	ic := DefaultIntentClassifier()

	got := ic.EnhanceQuery("What is the latest on the budget vote?", nil)
	if got != "What is the latest on the budget vote?" {
		t.Errorf("non-follow-up was rewritten: %q", got)
	}
}

func TestEnhanceQueryFollowUpUsesEntity(t *testing.T) {
	ic := DefaultIntentClassifier()

	history := []types.ConversationMessage{
		msg(types.RoleUser, "tell me about: OpenAI"),
		msg(types.RoleAssistant, "OpenAI is an AI research company."),
	}
	got := ic.EnhanceQuery("tell me more", history)
	if !strings.Contains(got, "OpenAI") {
		t.Errorf("follow-up not enriched with entity: %q", got)
	}
}

func TestEnhanceQueryFollowUpUsesRecentTurns(t *testing.T) {
	ic := DefaultIntentClassifier()

	history := []types.ConversationMessage{
		msg(types.RoleUser, "news on the rail strike"),
		msg(types.RoleAssistant, "The strike entered its third day."),
		msg(types.RoleUser, "what did the union say"),
		msg(types.RoleAssistant, "The union demanded arbitration."),
	}
	got := ic.EnhanceQuery("what about the government response", history)
	if !strings.Contains(got, "rail strike") || !strings.Contains(got, "union") {
		t.Errorf("follow-up missing recent turns: %q", got)
	}
	// Appended turns stay chronological.
	if strings.Index(got, "rail strike") > strings.Index(got, "union say") {
		t.Errorf("appended turns out of order: %q", got)
	}
}

func TestEnhanceQueryFollowUpNoHistory(t *testing.T) {
	ic := DefaultIntentClassifier()

	got := ic.EnhanceQuery("tell me more", nil)
	if got != "tell me more" {
		t.Errorf("follow-up with no history was rewritten: %q", got)
	}
}
