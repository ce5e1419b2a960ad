package types

import "time"

// ChunkKind distinguishes the combined title/summary chunk from body chunks.
type ChunkKind string

const (
	ChunkKindTitle   ChunkKind = "title"
	ChunkKindContent ChunkKind = "content"
)

// ChunkMetadata carries the denormalized article fields stored alongside
// each chunk in the vector index, so search hits are self-describing.
type ChunkMetadata struct {
	Title         string    `json:"title"`
	Source        string    `json:"source,omitempty"`
	Category      string    `json:"category,omitempty"`
	PublishedDate time.Time `json:"published_date"`
	URL           string    `json:"url,omitempty"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// Chunk is a bounded slice of an article's text prepared for embedding.
// Chunks are immutable once embedded; Seq is non-decreasing within an article.
type Chunk struct {
	ID         string        `json:"id"`
	ArticleID  string        `json:"article_id"`
	Seq        int           `json:"chunk_id"`
	Text       string        `json:"text"`
	Kind       ChunkKind     `json:"type"`
	StartIndex int           `json:"start_index"`
	EndIndex   int           `json:"end_index"`
	WordCount  int           `json:"word_count"`
	CharCount  int           `json:"char_count"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// EmbeddedChunk pairs a chunk with its embedding vector. Created once per
// chunk and owned by the vector index after insertion.
type EmbeddedChunk struct {
	Chunk
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"embedding_dimension"`
}
