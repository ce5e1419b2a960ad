package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"newsrag/types"

	"github.com/google/uuid"
)

// Store describes the minimal vector database functionality the pipeline
// requires. Search results are guaranteed to be in descending-score order.
type Store interface {
	Upsert(ctx context.Context, chunks []types.EmbeddedChunk) error
	Search(ctx context.Context, vector []float32, limit int, filter map[string]interface{}, scoreThreshold float32) ([]types.SearchHit, error)
	DeleteByFilter(ctx context.Context, filter map[string]interface{}) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// Qdrant wraps the Qdrant vector database REST API
type Qdrant struct {
	baseURL    string
	collection string
	apiKey     string
	dimension  int
	httpClient *http.Client
}

// QdrantConfig holds configuration for Qdrant connection
type QdrantConfig struct {
	Host           string
	Port           int
	APIKey         string
	CollectionName string
	Dimension      int
}

// NewQdrant creates a new Qdrant wrapper and ensures the collection exists
// with a cosine-distance index of the configured dimension.
func NewQdrant(config QdrantConfig) (*Qdrant, error) {
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", config.Dimension)
	}

	q := &Qdrant{
		baseURL:    fmt.Sprintf("http://%s:%d", config.Host, config.Port),
		collection: config.CollectionName,
		apiKey:     config.APIKey,
		dimension:  config.Dimension,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	if err := q.ensureCollection(context.Background(), config.CollectionName); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	return q, nil
}

// CollectionName returns the collection this client reads and writes.
func (q *Qdrant) CollectionName() string { return q.collection }

// WithCollection returns a client bound to another collection in the same
// deployment, creating it if missing. Used by the refresher to build a
// fresh corpus before swapping the alias.
func (q *Qdrant) WithCollection(ctx context.Context, name string) (*Qdrant, error) {
	clone := *q
	clone.collection = name
	if err := clone.ensureCollection(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to ensure collection %s: %w", name, err)
	}
	return &clone, nil
}

func (q *Qdrant) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant request failed: %v", types.ErrDownstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant %s %s returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// ensureCollection creates the collection if it does not already exist.
func (q *Qdrant) ensureCollection(ctx context.Context, name string) error {
	if _, err := q.do(ctx, http.MethodGet, "/collections/"+name, nil); err == nil {
		return nil
	}

	log.Printf("Creating Qdrant collection: %s (dim=%d)", name, q.dimension)
	payload := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     q.dimension,
			"distance": "Cosine",
		},
	}
	_, err := q.do(ctx, http.MethodPut, "/collections/"+name, payload)
	return err
}

// pointID derives a deterministic UUID from a chunk ID. Qdrant only accepts
// integer or UUID point IDs, so re-upserting the same chunk overwrites
// rather than duplicates.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// Upsert writes embedded chunks into the collection.
func (q *Qdrant) Upsert(ctx context.Context, chunks []types.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]map[string]interface{}, len(chunks))
	for i, chunk := range chunks {
		points[i] = map[string]interface{}{
			"id":     pointID(chunk.ID),
			"vector": chunk.Embedding,
			"payload": map[string]interface{}{
				"chunk_id":       chunk.ID,
				"article_id":     chunk.ArticleID,
				"seq":            chunk.Seq,
				"text":           chunk.Text,
				"type":           string(chunk.Kind),
				"title":          chunk.Metadata.Title,
				"source":         chunk.Metadata.Source,
				"category":       chunk.Metadata.Category,
				"published_date": chunk.Metadata.PublishedDate.Format(time.RFC3339),
				"url":            chunk.Metadata.URL,
				"scraped_at":     chunk.Metadata.ScrapedAt.Format(time.RFC3339),
			},
		}
	}

	payload := map[string]interface{}{"points": points}
	if _, err := q.do(ctx, http.MethodPut, "/collections/"+q.collection+"/points?wait=true", payload); err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	log.Printf("Upserted %d points into collection %s", len(points), q.collection)
	return nil
}

// Search runs a similarity query, optionally filtered, returning hits in
// descending-score order as Qdrant guarantees.
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int, filter map[string]interface{}, scoreThreshold float32) ([]types.SearchHit, error) {
	payload := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter != nil {
		payload["filter"] = filter
	}
	if scoreThreshold > 0 {
		payload["score_threshold"] = scoreThreshold
	}

	body, err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/search", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection: %w", err)
	}

	var parsed struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	hits := make([]types.SearchHit, 0, len(parsed.Result))
	for _, r := range parsed.Result {
		hit := types.SearchHit{
			ID:    stringField(r.Payload, "chunk_id"),
			Score: r.Score,
			Text:  stringField(r.Payload, "text"),
			Payload: types.ChunkMetadata{
				Title:    stringField(r.Payload, "title"),
				Source:   stringField(r.Payload, "source"),
				Category: stringField(r.Payload, "category"),
				URL:      stringField(r.Payload, "url"),
			},
		}
		if hit.ID == "" {
			hit.ID = fmt.Sprintf("%v", r.ID)
		}
		hit.Payload.PublishedDate = timeField(r.Payload, "published_date")
		hit.Payload.ScrapedAt = timeField(r.Payload, "scraped_at")
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteByFilter removes all points matching the filter; a nil filter
// clears the whole collection.
func (q *Qdrant) DeleteByFilter(ctx context.Context, filter map[string]interface{}) error {
	if filter == nil {
		filter = map[string]interface{}{"must": []interface{}{}}
	}
	payload := map[string]interface{}{"filter": filter}
	if _, err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/delete?wait=true", payload); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Count returns the number of points in the collection.
func (q *Qdrant) Count(ctx context.Context) (int, error) {
	body, err := q.do(ctx, http.MethodPost, "/collections/"+q.collection+"/points/count", map[string]interface{}{"exact": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}

	var parsed struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, err
	}
	return parsed.Result.Count, nil
}

// SwapAlias atomically repoints alias at target, dropping any previous
// binding in the same request so readers never observe a missing alias.
// On the very first swap the alias name may be occupied by the bootstrap
// collection created at startup; that placeholder is reaped first.
func (q *Qdrant) SwapAlias(ctx context.Context, alias, target string) error {
	exists, err := q.aliasExists(ctx, alias)
	if err != nil {
		return fmt.Errorf("failed to inspect aliases: %w", err)
	}

	var actions []map[string]interface{}
	if exists {
		actions = append(actions, map[string]interface{}{
			"delete_alias": map[string]interface{}{"alias_name": alias},
		})
	} else if alias != target {
		if _, err := q.do(ctx, http.MethodDelete, "/collections/"+alias, nil); err != nil {
			log.Printf("No bootstrap collection %s to reap before alias creation", alias)
		}
	}
	actions = append(actions, map[string]interface{}{
		"create_alias": map[string]interface{}{"collection_name": target, "alias_name": alias},
	})

	payload := map[string]interface{}{"actions": actions}
	if _, err := q.do(ctx, http.MethodPost, "/collections/aliases", payload); err != nil {
		return fmt.Errorf("failed to swap alias %s -> %s: %w", alias, target, err)
	}
	log.Printf("Alias %s now points at collection %s", alias, target)
	return nil
}

// aliasExists reports whether the deployment currently defines the alias.
func (q *Qdrant) aliasExists(ctx context.Context, alias string) (bool, error) {
	body, err := q.do(ctx, http.MethodGet, "/aliases", nil)
	if err != nil {
		return false, err
	}

	var parsed struct {
		Result struct {
			Aliases []struct {
				AliasName string `json:"alias_name"`
			} `json:"aliases"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, err
	}
	for _, a := range parsed.Result.Aliases {
		if a.AliasName == alias {
			return true, nil
		}
	}
	return false, nil
}

// DropCollection removes a collection outright. Used to reap the previous
// corpus version after an alias swap.
func (q *Qdrant) DropCollection(ctx context.Context, name string) error {
	_, err := q.do(ctx, http.MethodDelete, "/collections/"+name, nil)
	return err
}

// Close cleans up the wrapper (if needed)
func (q *Qdrant) Close() error {
	q.httpClient.CloseIdleConnections()
	return nil
}

func stringField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func timeField(payload map[string]interface{}, key string) time.Time {
	s := stringField(payload, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
