package retrieval

import (
	"context"
	"errors"
	"testing"

	"newsrag/types"
)

type fakeEmbedder struct {
	calls int
	fail  error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }
func (f *fakeEmbedder) Dimension() int    { return 3 }

type fakeStore struct {
	hits       []types.SearchHit
	lastLimit  int
	lastFilter map[string]interface{}
	lastScore  float32
	calls      int
}

func (f *fakeStore) Upsert(ctx context.Context, chunks []types.EmbeddedChunk) error { return nil }

func (f *fakeStore) Search(ctx context.Context, vector []float32, limit int, filter map[string]interface{}, scoreThreshold float32) ([]types.SearchHit, error) {
	f.calls++
	f.lastLimit = limit
	f.lastFilter = filter
	f.lastScore = scoreThreshold
	return f.hits, nil
}

func (f *fakeStore) DeleteByFilter(ctx context.Context, filter map[string]interface{}) error {
	return nil
}
func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.hits), nil }
func (f *fakeStore) Close() error                           { return nil }

func newTestService(store *fakeStore) (*Service, *fakeEmbedder) {
	embedder := &fakeEmbedder{}
	return NewService(NewNormalizer(NormalizerConfig{}), embedder, store), embedder
}

func TestSearchPipeline(t *testing.T) {
	store := &fakeStore{hits: []types.SearchHit{
		{
			ID:    "h1",
			Score: 0.9,
			Text:  "Quantum computing breakthrough announced at the lab with new qubit design.",
			Payload: types.ChunkMetadata{
				Title:  "Quantum computing breakthrough",
				Source: "Science Daily",
			},
		},
	}}
	svc, embedder := newTestService(store)

	results, err := svc.Search(context.Background(), "quantum computing breakthrough", types.SearchOptions{})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if embedder.calls != 1 {
		t.Errorf("embedder called %d times, want 1", embedder.calls)
	}

	r := results[0]
	if r.Snippet == "" {
		t.Error("snippet not populated")
	}
	if len(r.MatchedTerms) == 0 {
		t.Error("matched terms not populated")
	}
	if r.Attribution.Title != "Quantum computing breakthrough" {
		t.Errorf("attribution title = %q", r.Attribution.Title)
	}
}

func TestSearchRequestsExtraCandidates(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(store)

	if _, err := svc.Search(context.Background(), "energy markets", types.SearchOptions{TopK: 4}); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if store.lastLimit != 8 {
		t.Errorf("candidate limit = %d, want 8 (2x TopK)", store.lastLimit)
	}
	if store.lastScore != types.DefaultMinScore {
		t.Errorf("score threshold = %f, want default %f", store.lastScore, types.DefaultMinScore)
	}
}

func TestSearchPassesFilter(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(store)

	opts := types.SearchOptions{Sources: []string{"BBC"}}
	if _, err := svc.Search(context.Background(), "elections", opts); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if store.lastFilter == nil {
		t.Fatal("filter not passed to store")
	}

	if _, err := svc.Search(context.Background(), "elections", types.SearchOptions{NoCache: true}); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if store.lastFilter != nil {
		t.Error("expected nil filter when no dimension is set")
	}
}

func TestSearchCaching(t *testing.T) {
	store := &fakeStore{}
	svc, embedder := newTestService(store)

	for i := 0; i < 3; i++ {
		if _, err := svc.Search(context.Background(), "repeated question", types.SearchOptions{}); err != nil {
			t.Fatalf("Search %d returned error: %v", i, err)
		}
	}
	if embedder.calls != 1 {
		t.Errorf("embedder called %d times, want 1 (cache hits)", embedder.calls)
	}
	if store.calls != 1 {
		t.Errorf("store searched %d times, want 1 (cache hits)", store.calls)
	}

	// NoCache bypasses both read and write.
	if _, err := svc.Search(context.Background(), "repeated question", types.SearchOptions{NoCache: true}); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if store.calls != 2 {
		t.Errorf("NoCache did not bypass the cache: %d store calls", store.calls)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})

	if _, err := svc.Search(context.Background(), "", types.SearchOptions{}); !errors.Is(err, types.ErrInvalidQuery) {
		t.Errorf("empty query: err = %v, want ErrInvalidQuery", err)
	}

	// Strippable input yields empty results, not an error.
	results, err := svc.Search(context.Background(), "@@@", types.SearchOptions{})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSearchNoHits(t *testing.T) {
	svc, _ := newTestService(&fakeStore{})

	results, err := svc.Search(context.Background(), "nothing indexed yet", types.SearchOptions{})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result set, got %d", len(results))
	}
}
