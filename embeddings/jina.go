package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const jinaDimension = 768

// JinaProvider implements Provider using the Jina Embeddings API
// Endpoint: POST https://api.jina.ai/v1/embeddings
// Request: {"input": ["text1", ...], "model": "jina-embeddings-v2-base-en"}
// Response: {"data": [{"embedding": [...], "index": 0}, ...]}
type JinaProvider struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewJinaProvider builds a Jina-backed provider with a sane default model.
func NewJinaProvider(apiKey, model string) *JinaProvider {
	if model == "" {
		model = "jina-embeddings-v2-base-en"
	}
	return &JinaProvider{
		apiKey:     apiKey,
		model:      model,
		endpoint:   "https://api.jina.ai/v1/embeddings",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (j *JinaProvider) ModelName() string { return j.model }

func (j *JinaProvider) Dimension() int { return jinaDimension }

func (j *JinaProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	payload := map[string]interface{}{
		"input": texts,
		"model": j.model,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewBuffer(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", j.apiKey))

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jina embeddings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		var body map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, rateLimited{err: fmt.Errorf("jina embeddings rejected: status %d: %v", resp.StatusCode, body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("jina embeddings error: status %d: %v", resp.StatusCode, body)
	}

	var parsed struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, errors.New("embedding count mismatch")
	}

	out := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		if d.Index < 0 || d.Index >= len(out) {
			return nil, errors.New("embedding index out of range")
		}
		out[d.Index] = vec
	}
	return out, nil
}
