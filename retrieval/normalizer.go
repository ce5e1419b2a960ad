package retrieval

import (
	"fmt"
	"strings"

	"newsrag/types"
)

const (
	maxKeyTerms        = 5
	maxAppendedTerms   = 3
	shortQueryLimit    = 100
	minKeyTermLength   = 3
	queryCharWhitelist = "abcdefghijklmnopqrstuvwxyz0123456789 .,?!'-:"
)

// ProcessedQuery is the normalizer's output: the cleaned, expanded search
// string plus the key terms extracted from it.
type ProcessedQuery struct {
	Query    string
	KeyTerms []string
}

// NormalizerConfig makes the normalizer's fixed word lists swappable
// configuration data rather than hardcoded branches.
type NormalizerConfig struct {
	Abbreviations map[string]string
	StopWords     map[string]struct{}
}

// DefaultNormalizerConfig returns the built-in abbreviation and stop-word sets.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Abbreviations: map[string]string{
			"ai":  "artificial intelligence",
			"ml":  "machine learning",
			"llm": "large language model",
			"nlp": "natural language processing",
			"ev":  "electric vehicle",
			"gdp": "gross domestic product",
			"ipo": "initial public offering",
		},
		StopWords: toSet([]string{
			"a", "an", "the", "and", "or", "but", "is", "are", "was", "were",
			"be", "been", "being", "have", "has", "had", "do", "does", "did",
			"will", "would", "could", "should", "may", "might", "shall", "can",
			"to", "of", "in", "for", "on", "with", "at", "by", "from", "as",
			"about", "into", "over", "after", "what", "which", "who", "whom",
			"this", "that", "these", "those", "it", "its", "they", "them",
			"there", "here", "when", "where", "why", "how", "all", "any",
			"me", "my", "you", "your", "tell", "show", "latest", "news",
		}),
	}
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Normalizer cleans and expands raw user queries into search strings.
// It is stateless; Normalize is idempotent on its own output.
type Normalizer struct {
	cfg NormalizerConfig
}

// NewNormalizer creates a normalizer; zero-valued config fields get defaults.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	def := DefaultNormalizerConfig()
	if cfg.Abbreviations == nil {
		cfg.Abbreviations = def.Abbreviations
	}
	if cfg.StopWords == nil {
		cfg.StopWords = def.StopWords
	}
	return &Normalizer{cfg: cfg}
}

// Normalize lowercases, collapses whitespace, strips characters outside the
// whitelist, expands known abbreviations, and extracts up to five key terms.
// Short queries get up to three key terms appended for recall; terms already
// present are never duplicated. Only a completely empty raw input is an
// error; an input that cleans to the empty string is legal and yields no
// key terms.
func (n *Normalizer) Normalize(raw string) (ProcessedQuery, error) {
	if raw == "" {
		return ProcessedQuery{}, fmt.Errorf("%w: query is empty", types.ErrInvalidQuery)
	}

	cleaned := n.clean(raw)
	expanded := n.expandAbbreviations(cleaned)
	keyTerms := n.extractKeyTerms(expanded)
	query := n.appendKeyTerms(expanded, keyTerms)

	return ProcessedQuery{Query: query, KeyTerms: keyTerms}, nil
}

func (n *Normalizer) clean(raw string) string {
	lowered := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if strings.ContainsRune(queryCharWhitelist, r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (n *Normalizer) expandAbbreviations(query string) string {
	if query == "" {
		return query
	}
	words := strings.Split(query, " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		trimmed := strings.Trim(w, ".,?!'-:")
		if full, ok := n.cfg.Abbreviations[trimmed]; ok {
			out = append(out, full)
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func (n *Normalizer) extractKeyTerms(query string) []string {
	terms := make([]string, 0, maxKeyTerms)
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(query) {
		w = strings.Trim(w, ".,?!'-:")
		if len(w) < minKeyTermLength {
			continue
		}
		if _, stop := n.cfg.StopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
		if len(terms) == maxKeyTerms {
			break
		}
	}
	return terms
}

// appendKeyTerms is a recall heuristic, not semantic rewriting: it only
// fires on short queries and never duplicates terms already present.
func (n *Normalizer) appendKeyTerms(query string, keyTerms []string) string {
	if len(query) >= shortQueryLimit {
		return query
	}
	appended := 0
	for _, term := range keyTerms {
		if appended == maxAppendedTerms {
			break
		}
		if strings.Contains(query, term) {
			continue
		}
		query = strings.TrimSpace(query + " " + term)
		appended++
	}
	return query
}
