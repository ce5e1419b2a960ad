package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"newsrag/config"
	"newsrag/generation"
	"newsrag/types"

	"github.com/google/uuid"
)

// Retriever is the slice of the search pipeline the chat service consumes.
type Retriever interface {
	Search(ctx context.Context, query string, options types.SearchOptions) ([]types.RankedResult, error)
}

// FallbackResponse is returned when the generation provider fails; the
// assistant message carries degraded metadata so callers can tell it apart
// from a genuine answer.
const FallbackResponse = "Sorry, I couldn't put together an answer just now. Please try again in a moment."

// systemPreamble frames every generation prompt.
const systemPreamble = "You are a news assistant. Answer using the provided article excerpts when available, and cite their titles. If the excerpts do not cover the question, say so plainly."

// TurnRequest is one user turn.
type TurnRequest struct {
	Message   string
	SessionID string
	Options   types.SearchOptions
}

// TurnResponse is the completed turn: the assistant message plus the
// retrieval context it was conditioned on.
type TurnResponse struct {
	SessionID  string
	Message    types.ConversationMessage
	RAGContext []types.RankedResult
}

// Service orchestrates a chat turn: history load, retrieval gating, context
// assembly, generation, and the commit of both turn messages. History is
// only appended after the full turn resolves, so a failed turn leaves the
// session unchanged.
type Service struct {
	sessions    SessionStore
	retriever   Retriever
	generator   generation.Generator
	assembler   *Assembler
	intent      *IntentClassifier
	tokenBudget int
	genParams   generation.Params
}

// ServiceConfig wires the chat service's collaborators.
type ServiceConfig struct {
	Sessions    SessionStore
	Retriever   Retriever
	Generator   generation.Generator
	Assembler   *Assembler
	Intent      *IntentClassifier
	TokenBudget int
	GenParams   generation.Params
}

// NewService builds a chat service; nil Assembler/Intent get defaults.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Assembler == nil {
		cfg.Assembler = NewAssembler(nil)
	}
	if cfg.Intent == nil {
		cfg.Intent = DefaultIntentClassifier()
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = config.DefaultTokenBudget
	}
	return &Service{
		sessions:    cfg.Sessions,
		retriever:   cfg.Retriever,
		generator:   cfg.Generator,
		assembler:   cfg.Assembler,
		intent:      cfg.Intent,
		tokenBudget: cfg.TokenBudget,
		genParams:   cfg.GenParams,
	}
}

// Turn runs one chat turn end to end. The user always receives a text
// response: provider failures degrade to a canned fallback, never an error
// surfaced to the end user.
func (s *Service) Turn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", types.ErrInvalidInput)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		// A history read failure degrades to a context-free turn.
		log.Printf("Warning: failed to load history for session %s: %v", sessionID, err)
		history = nil
	}

	var ragContext []types.RankedResult
	if s.intent.ShouldUseContext(message, history) {
		query := s.intent.EnhanceQuery(message, history)
		results, err := s.retriever.Search(ctx, query, req.Options)
		switch {
		case err != nil:
			// Retrieval failures degrade answer quality, never the turn.
			log.Printf("Warning: retrieval failed for session %s: %v", sessionID, err)
		case len(results) == 0:
			log.Printf("No relevant context for session %s query %q", sessionID, query)
		default:
			ragContext = results
		}
	}

	assembled := s.assembler.Assemble(history, s.tokenBudget)
	prompt := s.buildPrompt(message, ragContext)

	assistant := types.ConversationMessage{
		ID:        uuid.New().String(),
		Role:      types.RoleAssistant,
		Timestamp: time.Now(),
		Metadata:  map[string]string{},
	}

	genCtx, cancel := context.WithTimeout(ctx, config.DownstreamTimeout)
	answer, err := s.generator.Generate(genCtx, prompt, assembled.Messages, s.genParams)
	cancel()
	if err != nil {
		log.Printf("Generation failed for session %s: %v", sessionID, err)
		assistant.Content = FallbackResponse
		assistant.Metadata["degraded"] = "true"
	} else {
		assistant.Content = answer
	}
	if len(ragContext) == 0 {
		assistant.Metadata["context"] = "none"
	} else {
		assistant.Metadata["context"] = fmt.Sprintf("%d", len(ragContext))
	}

	userMsg := types.ConversationMessage{
		ID:        uuid.New().String(),
		Role:      types.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	}

	// Both turn messages are committed together, only now that the turn
	// has fully resolved.
	if err := s.sessions.Append(ctx, sessionID, userMsg, assistant); err != nil {
		return nil, fmt.Errorf("failed to persist turn for session %s: %w", sessionID, err)
	}

	return &TurnResponse{
		SessionID:  sessionID,
		Message:    assistant,
		RAGContext: ragContext,
	}, nil
}

// buildPrompt folds the retrieved excerpts into the generation prompt.
func (s *Service) buildPrompt(message string, ragContext []types.RankedResult) string {
	if len(ragContext) == 0 {
		return systemPreamble + "\n\nQuestion: " + message
	}

	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nArticle excerpts:\n")
	for i, result := range ragContext {
		fmt.Fprintf(&b, "%d. [%s", i+1, result.Attribution.Title)
		if result.Attribution.Source != "" {
			fmt.Fprintf(&b, ", %s", result.Attribution.Source)
		}
		if !result.Attribution.PublishedDate.IsZero() {
			fmt.Fprintf(&b, ", %s", result.Attribution.PublishedDate.Format("2006-01-02"))
		}
		b.WriteString("]\n")
		b.WriteString(result.Snippet)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(message)
	return b.String()
}
