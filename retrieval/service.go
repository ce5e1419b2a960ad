package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"newsrag/config"
	"newsrag/embeddings"
	"newsrag/types"
	"newsrag/vectorstore"
)

// Service runs the full search pipeline: normalize, embed, filter, vector
// search, diversity ranking, snippet generation. Each invocation operates on
// locally-scoped state; the only shared structure is the result cache, which
// is concurrency-safe.
type Service struct {
	normalizer *Normalizer
	embedder   embeddings.Provider
	store      vectorstore.Store

	mu    sync.RWMutex
	cache map[string]cachedResult
}

type cachedResult struct {
	results  []types.RankedResult
	storedAt time.Time
}

const cacheTTL = 5 * time.Minute

// NewService wires the search pipeline. The embedder and store are injected
// so tests can substitute fakes.
func NewService(normalizer *Normalizer, embedder embeddings.Provider, store vectorstore.Store) *Service {
	return &Service{
		normalizer: normalizer,
		embedder:   embedder,
		store:      store,
		cache:      make(map[string]cachedResult),
	}
}

// Search resolves options, runs the pipeline, and returns diversified,
// snippeted results. An empty result set is a legitimate outcome.
func (s *Service) Search(ctx context.Context, rawQuery string, options types.SearchOptions) ([]types.RankedResult, error) {
	opts := options.Resolve()

	processed, err := s.normalizer.Normalize(rawQuery)
	if err != nil {
		return nil, err
	}
	if processed.Query == "" {
		return []types.RankedResult{}, nil
	}

	cacheKey := searchCacheKey(processed.Query, opts)
	if !opts.NoCache {
		if cached, ok := s.cacheGet(cacheKey); ok {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, config.DownstreamTimeout)
	defer cancel()

	vectors, err := embeddings.EmbedWithRetry(ctx, s.embedder, []string{processed.Query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: embedding provider returned no vector", types.ErrDownstreamUnavailable)
	}

	filter := BuildFilter(opts)

	hits, err := s.store.Search(ctx, vectors[0], opts.CandidateCount(), filter, opts.MinScore)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results, err := Rank(hits, opts.TopK, opts.DiversityThreshold)
	if err != nil {
		return nil, err
	}

	for i := range results {
		results[i].MatchedTerms = MatchedTerms(results[i].Text, processed.KeyTerms)
		results[i].Snippet = Snippet(results[i].Text, processed.KeyTerms, DefaultSnippetLength)
	}

	if !opts.NoCache {
		s.cachePut(cacheKey, results)
	}

	log.Printf("Search %q: %d candidates, %d after diversity", processed.Query, len(hits), len(results))
	return results, nil
}

func (s *Service) cacheGet(key string) ([]types.RankedResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok || time.Since(entry.storedAt) > cacheTTL {
		return nil, false
	}
	return entry.results, true
}

func (s *Service) cachePut(key string, results []types.RankedResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cachedResult{results: results, storedAt: time.Now()}
}

// searchCacheKey hashes the processed query together with every option that
// affects the result set.
func searchCacheKey(query string, opts types.ResolvedSearchOptions) string {
	payload, _ := json.Marshal(struct {
		Query string
		Opts  types.ResolvedSearchOptions
	}{query, opts})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
