package ingest

import (
	"strings"
	"testing"
	"time"

	"newsrag/types"
)

func makeArticle(title, content string) *types.Article {
	return &types.Article{
		ID:              "art1",
		Title:           title,
		URL:             "https://example.com/art1",
		Source:          "Example News",
		PublishedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		FetchedAt:       time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC),
		FullContentText: content,
	}
}

// sentenceBlock builds deterministic content of roughly n characters made of
// short sentences, so boundary selection has sentence ends to work with.
func sentenceBlock(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("The quick brown fox jumps over the lazy dog near the riverbank today. ")
	}
	return strings.TrimSpace(b.String())
}

func TestChunkTitleChunkFirst(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})
	article := makeArticle("Markets rally on rate cut hopes", sentenceBlock(1200))
	article.Summary = "Stocks climbed as <b>investors</b> bet on easing."

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected title chunk plus content chunks, got %d chunks", len(chunks))
	}

	first := chunks[0]
	if first.Kind != types.ChunkKindTitle {
		t.Errorf("first chunk kind = %q, want %q", first.Kind, types.ChunkKindTitle)
	}
	if !strings.HasPrefix(first.Text, "Markets rally on rate cut hopes") {
		t.Errorf("title chunk does not start with the title: %q", first.Text)
	}
	if strings.Contains(first.Text, "<b>") {
		t.Errorf("title chunk retains HTML: %q", first.Text)
	}
	if !strings.Contains(first.Text, "investors bet on easing") {
		t.Errorf("title chunk missing summary text: %q", first.Text)
	}
}

func TestChunkOverlappingWindows(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{ChunkSize: 300, ChunkOverlap: 80, MinChunkSize: 50})
	content := sentenceBlock(850)
	article := makeArticle("Long article", content)

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}

	var contentChunks []types.Chunk
	for _, c := range chunks {
		if c.Kind == types.ChunkKindContent {
			contentChunks = append(contentChunks, c)
		}
	}
	if len(contentChunks) < 3 {
		t.Fatalf("expected at least 3 content windows for 850 chars at size 300, got %d", len(contentChunks))
	}

	for i, c := range contentChunks {
		if c.CharCount != len(c.Text) {
			t.Errorf("chunk %d: CharCount = %d, len(Text) = %d", i, c.CharCount, len(c.Text))
		}
		if c.WordCount != len(strings.Fields(c.Text)) {
			t.Errorf("chunk %d: WordCount = %d, want %d", i, c.WordCount, len(strings.Fields(c.Text)))
		}
		if normalized := normalizeContent(content); !strings.Contains(normalized, c.Text) {
			t.Errorf("chunk %d text is not a substring of the normalized content", i)
		}
		if i > 0 && c.StartIndex <= contentChunks[i-1].StartIndex {
			t.Errorf("chunk %d: StartIndex %d not strictly after previous %d", i, c.StartIndex, contentChunks[i-1].StartIndex)
		}
	}

	// Consecutive windows must share text.
	for i := 1; i < len(contentChunks); i++ {
		prev, cur := contentChunks[i-1], contentChunks[i]
		if cur.StartIndex >= prev.EndIndex {
			t.Errorf("windows %d and %d do not overlap: prev end %d, cur start %d", i-1, i, prev.EndIndex, cur.StartIndex)
		}
	}
}

func TestChunkSequenceAndIDs(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{ChunkSize: 300, ChunkOverlap: 80, MinChunkSize: 50})
	article := makeArticle("Seq check", sentenceBlock(700))

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	for i, c := range chunks {
		if c.Seq != i {
			t.Errorf("chunk %d has Seq %d", i, c.Seq)
		}
		if c.ArticleID != article.ID {
			t.Errorf("chunk %d has ArticleID %q", i, c.ArticleID)
		}
		if !strings.HasPrefix(c.ID, article.ID+"-") {
			t.Errorf("chunk %d has ID %q, want prefix %q", i, c.ID, article.ID+"-")
		}
	}
}

func TestChunkShortArticleTitleOnly(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})
	article := makeArticle("Brief note", "Too short.")

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected only the title chunk, got %d chunks", len(chunks))
	}
	if chunks[0].Kind != types.ChunkKindTitle {
		t.Errorf("chunk kind = %q, want title", chunks[0].Kind)
	}
}

func TestChunkEmptyArticle(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})

	if _, err := chunker.Chunk(makeArticle("", "")); err == nil {
		t.Error("expected error for article with no usable text")
	}
	if _, err := chunker.Chunk(nil); err == nil {
		t.Error("expected error for nil article")
	}
}

func TestChunkTailRetention(t *testing.T) {
	// The tail is kept when it reaches half the minimum size.
	chunker := NewChunker(ChunkerConfig{ChunkSize: 200, ChunkOverlap: 40, MinChunkSize: 100})
	article := makeArticle("Tail check", sentenceBlock(260))

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	last := chunks[len(chunks)-1]
	if last.Kind == types.ChunkKindContent && len(last.Text) < chunker.cfg.MinChunkSize/2 {
		t.Errorf("retained tail shorter than MinChunkSize/2: %d chars", len(last.Text))
	}
}

func TestChunkerDefaults(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})
	if chunker.cfg.ChunkSize <= 0 || chunker.cfg.ChunkOverlap <= 0 || chunker.cfg.MinChunkSize <= 0 {
		t.Errorf("defaults not applied: %+v", chunker.cfg)
	}
	if chunker.cfg.ChunkOverlap >= chunker.cfg.ChunkSize {
		t.Errorf("overlap %d must be below chunk size %d", chunker.cfg.ChunkOverlap, chunker.cfg.ChunkSize)
	}
}
