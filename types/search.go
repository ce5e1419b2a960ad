package types

import "time"

// Search defaults and caps. TopK requests above MaxTopK are clamped, never
// rejected, so a misbehaving client degrades instead of erroring.
const (
	DefaultTopK               = 5
	MaxTopK                   = 20
	DefaultMinScore           = float32(0.3)
	DefaultDiversityThreshold = float32(0.8)
)

// SearchHit is a single result returned by the vector store, transient and
// never persisted. Payload holds the denormalized chunk fields.
type SearchHit struct {
	ID      string        `json:"id"`
	Score   float32       `json:"score"`
	Text    string        `json:"text"`
	Payload ChunkMetadata `json:"payload"`
}

// RankedResult is the final unit returned to callers: a hit that survived
// diversity filtering, plus relevance context and a bounded excerpt.
type RankedResult struct {
	SearchHit
	MatchedTerms []string    `json:"matched_terms,omitempty"`
	Snippet      string      `json:"snippet"`
	Attribution  Attribution `json:"attribution"`
}

// Attribution identifies the source of a retained hit.
type Attribution struct {
	Title         string    `json:"title"`
	Source        string    `json:"source,omitempty"`
	URL           string    `json:"url,omitempty"`
	PublishedDate time.Time `json:"published_date,omitempty"`
}

// SearchOptions configures one search request. All fields are optional;
// Resolve fills in documented defaults.
type SearchOptions struct {
	TopK               int        `json:"top_k,omitempty"`
	MinScore           *float32   `json:"min_score,omitempty"`
	Sources            []string   `json:"sources,omitempty"`
	Categories         []string   `json:"categories,omitempty"`
	PublishedAfter     *time.Time `json:"published_after,omitempty"`
	PublishedBefore    *time.Time `json:"published_before,omitempty"`
	ContentType        string     `json:"content_type,omitempty"`
	DiversityThreshold *float32   `json:"diversity_threshold,omitempty"`
	NoCache            bool       `json:"no_cache,omitempty"`
}

// ResolvedSearchOptions is a SearchOptions with every default applied.
// It is computed once at the API boundary and passed by value thereafter.
type ResolvedSearchOptions struct {
	TopK               int
	MinScore           float32
	Sources            []string
	Categories         []string
	PublishedAfter     *time.Time
	PublishedBefore    *time.Time
	ContentType        string
	DiversityThreshold float32
	NoCache            bool
}

// Resolve applies defaults and clamps TopK to the configured cap.
func (o SearchOptions) Resolve() ResolvedSearchOptions {
	r := ResolvedSearchOptions{
		TopK:               o.TopK,
		MinScore:           DefaultMinScore,
		Sources:            o.Sources,
		Categories:         o.Categories,
		PublishedAfter:     o.PublishedAfter,
		PublishedBefore:    o.PublishedBefore,
		ContentType:        o.ContentType,
		DiversityThreshold: DefaultDiversityThreshold,
		NoCache:            o.NoCache,
	}
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
	if r.TopK > MaxTopK {
		r.TopK = MaxTopK
	}
	if o.MinScore != nil {
		r.MinScore = *o.MinScore
	}
	if o.DiversityThreshold != nil {
		r.DiversityThreshold = *o.DiversityThreshold
	}
	return r
}

// CandidateCount returns how many raw hits to request from the vector store
// before diversity filtering: fetching extra candidates gives the
// diversifier room to reject near-duplicates and still fill TopK.
func (r ResolvedSearchOptions) CandidateCount() int {
	n := 2 * r.TopK
	if n > MaxTopK {
		n = MaxTopK
	}
	if n < r.TopK {
		n = r.TopK
	}
	return n
}
