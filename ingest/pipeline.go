package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"newsrag/common"
	"newsrag/config"
	"newsrag/embeddings"
	"newsrag/rssfeeds"
	"newsrag/types"
	"newsrag/vectorstore"
)

// Summary reports one ingestion batch.
type Summary struct {
	Articles int `json:"articles"`
	Indexed  int `json:"indexed"`
	Skipped  int `json:"skipped"`
	Chunks   int `json:"chunks"`
}

// Pipeline runs the linear ingestion batch: fetch, extract, chunk, embed,
// upsert, with optional raw-article archival. Failures are isolated per
// article; a batch never aborts because one article is malformed.
type Pipeline struct {
	chunker  *Chunker
	embedder embeddings.Provider
	archive  *common.ArticleArchive // nil when archival is not configured
}

// NewPipeline wires an ingestion pipeline. archive may be nil.
func NewPipeline(chunker *Chunker, embedder embeddings.Provider, archive *common.ArticleArchive) *Pipeline {
	return &Pipeline{chunker: chunker, embedder: embedder, archive: archive}
}

// FetchAndExtract pulls articles from the given feeds and extracts their
// full content. Feed identifiers may be preset names or direct URLs.
func (p *Pipeline) FetchAndExtract(feeds []string, perFeed int) []*types.Article {
	if len(feeds) == 0 {
		feeds = []string{config.DefaultFeedPreset}
	}
	if perFeed <= 0 {
		perFeed = config.DefaultFetchCount
	}

	var articles []*types.Article
	for _, feed := range feeds {
		feedURL := config.ResolveFeedURL(feed)
		fetched, err := rssfeeds.FetchFeed(feedURL, perFeed)
		if err != nil {
			log.Printf("Warning: failed to fetch feed %s: %v", feedURL, err)
			continue
		}
		log.Printf("Fetched %d articles from %s", len(fetched), feedURL)
		articles = append(articles, fetched...)
	}

	if len(articles) > 0 {
		rssfeeds.ExtractAllContent(articles)
	}
	return articles
}

// IngestArticles chunks, embeds, and upserts articles into the given store.
func (p *Pipeline) IngestArticles(ctx context.Context, articles []*types.Article, store vectorstore.Store) (Summary, error) {
	summary := Summary{Articles: len(articles)}

	var chunks []types.Chunk
	for i, article := range articles {
		if article.ExtractionError != "" {
			log.Printf("[%d/%d] Skipping %s: extraction failed: %s", i+1, len(articles), article.ID, article.ExtractionError)
			summary.Skipped++
			continue
		}

		articleChunks, err := p.chunker.Chunk(article)
		if err != nil {
			log.Printf("[%d/%d] Skipping %s: %v", i+1, len(articles), article.ID, err)
			summary.Skipped++
			continue
		}

		chunks = append(chunks, articleChunks...)
		summary.Indexed++

		if p.archive != nil {
			if err := p.archive.Put(ctx, article); err != nil {
				log.Printf("Warning: failed to archive article %s: %v", article.ID, err)
			}
		}
	}

	if len(chunks) == 0 {
		return summary, nil
	}

	embedded, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return summary, err
	}

	if err := store.Upsert(ctx, embedded); err != nil {
		return summary, fmt.Errorf("upsert chunks: %w", err)
	}

	summary.Chunks = len(embedded)
	log.Printf("Ingested %d articles (%d skipped) as %d chunks", summary.Indexed, summary.Skipped, summary.Chunks)
	return summary, nil
}

// embedChunks embeds chunk texts in bounded batches, preserving order.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []types.Chunk) ([]types.EmbeddedChunk, error) {
	embedded := make([]types.EmbeddedChunk, 0, len(chunks))

	for start := 0; start < len(chunks); start += config.EmbedBatchSize {
		end := start + config.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		embedCtx, cancel := context.WithTimeout(ctx, config.DownstreamTimeout)
		vectors, err := embeddings.EmbedWithRetry(embedCtx, p.embedder, texts)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors for %d texts", start, end, len(vectors), len(batch))
		}

		for i, chunk := range batch {
			embedded = append(embedded, types.EmbeddedChunk{
				Chunk:     chunk,
				Embedding: vectors[i],
				Dimension: len(vectors[i]),
			})
		}
	}
	return embedded, nil
}

// RunOnce fetches the configured feeds and ingests them into the store.
func (p *Pipeline) RunOnce(ctx context.Context, feeds []string, perFeed int, store vectorstore.Store) (Summary, error) {
	started := time.Now()
	articles := p.FetchAndExtract(feeds, perFeed)
	summary, err := p.IngestArticles(ctx, articles, store)
	if err != nil {
		return summary, err
	}
	log.Printf("Ingestion run complete in %s", time.Since(started).Round(time.Millisecond))
	return summary, nil
}
