package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"newsrag/generation"
	"newsrag/types"
)

type fakeSessionStore struct {
	histories  map[string][]types.ConversationMessage
	appendErr  error
	historyErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{histories: make(map[string][]types.ConversationMessage)}
}

func (f *fakeSessionStore) History(ctx context.Context, sessionID string) ([]types.ConversationMessage, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.histories[sessionID], nil
}

func (f *fakeSessionStore) Append(ctx context.Context, sessionID string, messages ...types.ConversationMessage) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.histories[sessionID] = append(f.histories[sessionID], messages...)
	return nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.histories, sessionID)
	return nil
}

func (f *fakeSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, ok := f.histories[sessionID]
	return ok, nil
}

func (f *fakeSessionStore) MessageCount(ctx context.Context, sessionID string) (int64, error) {
	return int64(len(f.histories[sessionID])), nil
}

func (f *fakeSessionStore) Close() error { return nil }

type fakeRetriever struct {
	results   []types.RankedResult
	err       error
	lastQuery string
	calls     int
}

func (f *fakeRetriever) Search(ctx context.Context, query string, options types.SearchOptions) ([]types.RankedResult, error) {
	f.calls++
	f.lastQuery = query
	return f.results, f.err
}

type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, history []types.ConversationMessage, params generation.Params) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) ModelName() string { return "fake-gen" }

func rankedResult(title, snippet string) types.RankedResult {
	return types.RankedResult{
		SearchHit: types.SearchHit{Score: 0.9, Text: snippet},
		Snippet:   snippet,
		Attribution: types.Attribution{
			Title:  title,
			Source: "Test Wire",
		},
	}
}

func newTestChatService(sessions SessionStore, retriever Retriever, gen generation.Generator) *Service {
	return NewService(ServiceConfig{
		Sessions:  sessions,
		Retriever: retriever,
		Generator: gen,
	})
}

func TestTurnHappyPath(t *testing.T) {
	sessions := newFakeSessionStore()
	retriever := &fakeRetriever{results: []types.RankedResult{
		rankedResult("Fed raises rates", "The Fed raised rates by 25 basis points."),
	}}
	gen := &fakeGenerator{reply: "The Fed raised rates by a quarter point."}
	svc := newTestChatService(sessions, retriever, gen)

	resp, err := svc.Turn(context.Background(), TurnRequest{Message: "What is the latest news on interest rates?"})
	if err != nil {
		t.Fatalf("Turn returned error: %v", err)
	}

	if resp.SessionID == "" {
		t.Error("expected a generated session ID")
	}
	if resp.Message.Content != gen.reply {
		t.Errorf("reply = %q, want %q", resp.Message.Content, gen.reply)
	}
	if resp.Message.IsDegraded() {
		t.Error("successful turn marked degraded")
	}
	if len(resp.RAGContext) != 1 {
		t.Errorf("expected 1 context result, got %d", len(resp.RAGContext))
	}
	if !strings.Contains(gen.lastPrompt, "Fed raises rates") {
		t.Errorf("prompt missing excerpt attribution: %q", gen.lastPrompt)
	}

	history := sessions.histories[resp.SessionID]
	if len(history) != 2 {
		t.Fatalf("expected user+assistant committed, got %d messages", len(history))
	}
	if history[0].Role != types.RoleUser || history[1].Role != types.RoleAssistant {
		t.Errorf("history roles = %s, %s", history[0].Role, history[1].Role)
	}
}

func TestTurnEmptyMessage(t *testing.T) {
	svc := newTestChatService(newFakeSessionStore(), &fakeRetriever{}, &fakeGenerator{reply: "x"})

	if _, err := svc.Turn(context.Background(), TurnRequest{Message: "   "}); !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("empty message: err = %v, want ErrInvalidInput", err)
	}
}

func TestTurnGenerationFailureDegrades(t *testing.T) {
	sessions := newFakeSessionStore()
	gen := &fakeGenerator{err: types.ErrDownstreamUnavailable}
	svc := newTestChatService(sessions, &fakeRetriever{}, gen)

	resp, err := svc.Turn(context.Background(), TurnRequest{Message: "What happened in the markets?"})
	if err != nil {
		t.Fatalf("Turn surfaced provider error to caller: %v", err)
	}
	if resp.Message.Content != FallbackResponse {
		t.Errorf("reply = %q, want fallback", resp.Message.Content)
	}
	if !resp.Message.IsDegraded() {
		t.Error("degraded turn not marked in metadata")
	}

	// The degraded turn is still committed so the conversation stays coherent.
	if len(sessions.histories[resp.SessionID]) != 2 {
		t.Errorf("degraded turn not committed: %d messages", len(sessions.histories[resp.SessionID]))
	}
}

func TestTurnRetrievalFailureStillAnswers(t *testing.T) {
	retriever := &fakeRetriever{err: types.ErrDownstreamUnavailable}
	gen := &fakeGenerator{reply: "Here is what I know."}
	svc := newTestChatService(newFakeSessionStore(), retriever, gen)

	resp, err := svc.Turn(context.Background(), TurnRequest{Message: "What is the latest news on oil prices?"})
	if err != nil {
		t.Fatalf("Turn returned error: %v", err)
	}
	if resp.Message.Content != gen.reply {
		t.Errorf("reply = %q, want generator output", resp.Message.Content)
	}
	if len(resp.RAGContext) != 0 {
		t.Errorf("expected no context after retrieval failure, got %d", len(resp.RAGContext))
	}
	if resp.Message.Metadata["context"] != "none" {
		t.Errorf("context metadata = %q, want none", resp.Message.Metadata["context"])
	}
}

func TestTurnSkipsRetrievalForSmalltalk(t *testing.T) {
	retriever := &fakeRetriever{}
	gen := &fakeGenerator{reply: "Doing well, thanks!"}
	svc := newTestChatService(newFakeSessionStore(), retriever, gen)

	if _, err := svc.Turn(context.Background(), TurnRequest{Message: "How are you today?"}); err != nil {
		t.Fatalf("Turn returned error: %v", err)
	}
	if retriever.calls != 0 {
		t.Errorf("retriever called %d times for smalltalk, want 0", retriever.calls)
	}
}

func TestTurnPersistFailureSurfaces(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.appendErr = errors.New("redis down")
	svc := newTestChatService(sessions, &fakeRetriever{}, &fakeGenerator{reply: "x"})

	if _, err := svc.Turn(context.Background(), TurnRequest{Message: "What is the latest news?"}); err == nil {
		t.Error("expected error when the turn cannot be persisted")
	}
}

func TestTurnHistoryReadFailureDegrades(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.historyErr = errors.New("redis down")
	gen := &fakeGenerator{reply: "answer"}
	svc := newTestChatService(sessions, &fakeRetriever{}, gen)

	// History read failures degrade to a context-free turn, not an error.
	sessions.histories["s1"] = nil
	resp, err := svc.Turn(context.Background(), TurnRequest{Message: "What is the latest news?", SessionID: "s1"})
	if err != nil {
		t.Fatalf("Turn returned error: %v", err)
	}
	if resp.Message.Content != gen.reply {
		t.Errorf("reply = %q, want %q", resp.Message.Content, gen.reply)
	}
}

func TestTurnFollowUpEnhancesQuery(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.histories["s2"] = []types.ConversationMessage{
		{Role: types.RoleUser, Content: "latest news on the chip shortage"},
		{Role: types.RoleAssistant, Content: "Chipmakers reported ongoing constraints."},
	}
	retriever := &fakeRetriever{}
	svc := newTestChatService(sessions, retriever, &fakeGenerator{reply: "x"})

	if _, err := svc.Turn(context.Background(), TurnRequest{Message: "tell me more", SessionID: "s2"}); err != nil {
		t.Fatalf("Turn returned error: %v", err)
	}
	if retriever.calls != 1 {
		t.Fatalf("retriever called %d times, want 1", retriever.calls)
	}
	if !strings.Contains(retriever.lastQuery, "chip shortage") {
		t.Errorf("follow-up query not enhanced: %q", retriever.lastQuery)
	}
}
