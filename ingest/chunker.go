package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"newsrag/config"
	"newsrag/types"
)

// SplitStrategy selects which boundary the chunker prefers when closing a window.
type SplitStrategy string

const (
	SplitByParagraph SplitStrategy = "paragraph"
	SplitBySentence  SplitStrategy = "sentence"
)

// ChunkerConfig holds chunking parameters
type ChunkerConfig struct {
	ChunkSize    int           // target window size in characters
	ChunkOverlap int           // minimum characters shared between consecutive windows
	MinChunkSize int           // windows shorter than this are dropped (except a non-trivial tail)
	Strategy     SplitStrategy // preferred boundary when closing a window
}

// applyChunkerDefaults fills zero values with the configured defaults.
func applyChunkerDefaults(cfg ChunkerConfig) ChunkerConfig {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = config.DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = config.DefaultChunkOverlap
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 4
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = config.DefaultMinChunkSize
	}
	if cfg.Strategy == "" {
		cfg.Strategy = SplitBySentence
	}
	return cfg
}

// Chunker splits article text into overlapping, size-bounded segments.
// It is a pure function over its input; it never mutates the article.
type Chunker struct {
	cfg ChunkerConfig
}

// NewChunker creates a chunker, applying defaults for zero-valued config fields.
func NewChunker(cfg ChunkerConfig) *Chunker {
	return &Chunker{cfg: applyChunkerDefaults(cfg)}
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Chunk splits one article into an ordered chunk sequence: one title chunk
// combining the cleaned title and summary, followed by overlapping content
// windows. Returns an error only when the article has nothing to index;
// callers log and skip, never abort the batch.
func (c *Chunker) Chunk(article *types.Article) ([]types.Chunk, error) {
	if article == nil {
		return nil, fmt.Errorf("article is nil")
	}

	title := cleanText(article.Title)
	summary := cleanText(stripHTML(article.Summary))
	content := normalizeContent(article.FullContentText)

	if title == "" && content == "" {
		return nil, fmt.Errorf("article %s has no usable text", article.ID)
	}

	meta := types.ChunkMetadata{
		Title:         title,
		Source:        article.Source,
		PublishedDate: article.PublishedAt,
		URL:           article.URL,
		ScrapedAt:     article.FetchedAt,
	}
	if len(article.Categories) > 0 {
		meta.Category = article.Categories[0]
	}

	chunks := make([]types.Chunk, 0, 1+len(content)/c.cfg.ChunkSize)

	// Title chunk always comes first so even short articles are searchable.
	titleText := title
	if summary != "" {
		titleText = strings.TrimSpace(title + ". " + summary)
	}
	if titleText != "" {
		chunks = append(chunks, c.newChunk(article.ID, 0, types.ChunkKindTitle, titleText, 0, len(titleText), meta))
	}

	if len(content) < c.cfg.MinChunkSize {
		return chunks, nil
	}

	seq := len(chunks)
	pos := 0
	for pos < len(content) {
		end := c.windowEnd(content, pos)
		text := strings.TrimRight(content[pos:end], " \n")

		isTail := end >= len(content)
		if len(text) >= c.cfg.MinChunkSize || (isTail && len(text) >= c.cfg.MinChunkSize/2) {
			chunks = append(chunks, c.newChunk(article.ID, seq, types.ChunkKindContent, text, pos, pos+len(text), meta))
			seq++
		}
		if isTail {
			break
		}

		next := end - c.cfg.ChunkOverlap
		// Align the overlap start forward to a word boundary so neither
		// window begins mid-word.
		next = alignToWordStart(content, next)
		if next <= pos {
			next = pos + (c.cfg.ChunkSize - c.cfg.ChunkOverlap)
			if next <= pos {
				next = pos + 1
			}
		}
		pos = next
	}

	return chunks, nil
}

func (c *Chunker) newChunk(articleID string, seq int, kind types.ChunkKind, text string, start, end int, meta types.ChunkMetadata) types.Chunk {
	return types.Chunk{
		ID:         fmt.Sprintf("%s-%d", articleID, seq),
		ArticleID:  articleID,
		Seq:        seq,
		Text:       text,
		Kind:       kind,
		StartIndex: start,
		EndIndex:   end,
		WordCount:  len(strings.Fields(text)),
		CharCount:  len(text),
		Metadata:   meta,
	}
}

// windowEnd picks where the window starting at pos should close: at the
// content end if it fits, otherwise at the best boundary within the target
// size. Boundary preference depends on the strategy, falling back from
// paragraph to sentence to word to a hard cut.
func (c *Chunker) windowEnd(content string, pos int) int {
	limit := pos + c.cfg.ChunkSize
	if limit >= len(content) {
		return len(content)
	}

	window := content[pos:limit]
	// A boundary is only acceptable past the minimum size, otherwise a
	// leading short sentence would produce a degenerate window.
	floor := c.cfg.MinChunkSize

	if c.cfg.Strategy == SplitByParagraph {
		if i := strings.LastIndex(window, "\n\n"); i > floor {
			return pos + i
		}
	}
	if i := lastSentenceEnd(window); i > floor {
		return pos + i
	}
	if i := strings.LastIndexByte(window, ' '); i > floor {
		return pos + i
	}
	return limit
}

// lastSentenceEnd returns the index just past the last sentence terminator
// in s, or -1 when none is found.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			if i+1 < len(s) && s[i+1] != ' ' && s[i+1] != '\n' {
				continue
			}
			return i + 1
		}
	}
	return -1
}

func alignToWordStart(content string, pos int) int {
	if pos <= 0 {
		return 0
	}
	for pos < len(content) && content[pos] != ' ' && content[pos] != '\n' && content[pos-1] != ' ' && content[pos-1] != '\n' {
		pos++
	}
	for pos < len(content) && (content[pos] == ' ' || content[pos] == '\n') {
		pos++
	}
	return pos
}

func stripHTML(s string) string {
	return htmlTagRe.ReplaceAllString(s, " ")
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ReplaceAll(s, "\n", " "), " "))
}

// normalizeContent collapses runs of spaces and excess blank lines while
// preserving paragraph breaks, which the paragraph strategy depends on.
func normalizeContent(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
