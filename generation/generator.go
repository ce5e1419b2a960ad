package generation

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"newsrag/types"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	coherecore "github.com/cohere-ai/cohere-go/v2/core"
)

// Params configures one generation call. Zero values mean provider defaults.
type Params struct {
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// Generator abstracts the hosted LLM. History is passed alongside the
// prompt so providers that model conversations natively can use it.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []types.ConversationMessage, params Params) (string, error)
	ModelName() string
}

// NewDefaultGenerator returns a Cohere generator when COHERE_API_KEY is
// set, otherwise nil.
func NewDefaultGenerator(model string) Generator {
	if key := os.Getenv("COHERE_API_KEY"); key != "" {
		return NewCohereGenerator(key, model)
	}
	return nil
}

// CohereGenerator implements Generator using the Cohere Chat API.
type CohereGenerator struct {
	client *cohereclient.Client
	model  string
}

// NewCohereGenerator builds a Cohere-backed generator.
func NewCohereGenerator(apiKey, model string) *CohereGenerator {
	if model == "" {
		model = "command-r"
	}

	// Same HTTP/1.1 pinning as the embeddings client; the Cohere edge
	// intermittently resets HTTP/2 streams.
	httpClient := &http.Client{
		Timeout: 120 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereGenerator{client: client, model: model}
}

func (g *CohereGenerator) ModelName() string { return g.model }

func (g *CohereGenerator) Generate(ctx context.Context, prompt string, history []types.ConversationMessage, params Params) (string, error) {
	req := &cohere.ChatRequest{
		Message: prompt,
		Model:   &g.model,
	}
	if params.Temperature > 0 {
		req.Temperature = &params.Temperature
	}
	if params.TopP > 0 {
		req.P = &params.TopP
	}
	if params.TopK > 0 {
		req.K = &params.TopK
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = &params.MaxTokens
	}

	for _, msg := range history {
		switch msg.Role {
		case types.RoleUser:
			req.ChatHistory = append(req.ChatHistory, &cohere.Message{
				Role: "USER",
				User: &cohere.ChatMessage{Message: msg.Content},
			})
		case types.RoleAssistant:
			req.ChatHistory = append(req.ChatHistory, &cohere.Message{
				Role:    "CHATBOT",
				Chatbot: &cohere.ChatMessage{Message: msg.Content},
			})
		}
	}

	resp, err := g.client.Chat(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: cohere chat: %v", types.ErrDownstreamTimeout, err)
		}
		var apiErr *coherecore.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: cohere chat returned %d: %v", types.ErrDownstreamUnavailable, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%w: cohere chat: %v", types.ErrDownstreamUnavailable, err)
	}
	if resp == nil || resp.Text == "" {
		return "", fmt.Errorf("%w: cohere chat returned empty response", types.ErrDownstreamUnavailable)
	}
	return resp.Text, nil
}
