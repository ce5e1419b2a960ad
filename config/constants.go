package config

import "time"

// Chunking constants
const (
	// DefaultChunkSize is the target character length of a content chunk
	DefaultChunkSize = 800

	// DefaultChunkOverlap is the minimum character overlap preserved
	// between consecutive content chunks
	DefaultChunkOverlap = 200

	// DefaultMinChunkSize drops windows shorter than this, except a
	// non-trivial final window
	DefaultMinChunkSize = 100
)

// Session constants
const (
	// SessionTTL is the inactivity window after which a session expires
	SessionTTL = 30 * time.Minute

	// MaxHistoryLength caps the number of messages retained per session
	MaxHistoryLength = 50

	// DefaultTokenBudget bounds the estimated token cost of history
	// included in a generation prompt
	DefaultTokenBudget = 2000
)

// Downstream call constants
const (
	// DownstreamTimeout bounds each external call (embed, search, generate)
	DownstreamTimeout = 30 * time.Second

	// MaxRetries is the retry budget for transient downstream failures
	MaxRetries = 2

	// RetryBackoff is the base delay between retries (doubled per attempt)
	RetryBackoff = 500 * time.Millisecond
)

// Ingestion constants
const (
	// DefaultFeedPreset is the feed fetched when none is specified
	DefaultFeedPreset = "tr"

	// DefaultFetchCount is the number of articles pulled per feed refresh
	DefaultFetchCount = 20

	// EmbedBatchSize is the number of chunk texts sent per embed request
	EmbedBatchSize = 32

	// RefreshInterval is the default cadence of the background refresher
	RefreshInterval = 1 * time.Hour
)

// FeedPresets maps friendly names to RSS feed URLs
var FeedPresets = map[string]string{
	"cna": "https://www.channelnewsasia.com/api/v1/rss-outbound-feed?_format=xml",
	"st":  "https://www.straitstimes.com/news/singapore/rss.xml",
	"hn":  "https://hnrss.org/newest",
	"tr":  "https://www.technologyreview.com/feed/",
}

// ResolveFeedURL resolves a feed identifier to a URL.
// Preset names map to their URL; anything else is assumed to be a direct URL.
func ResolveFeedURL(feedInput string) string {
	if url, exists := FeedPresets[feedInput]; exists {
		return url
	}
	return feedInput
}
