package retrieval

import (
	"sort"
	"strings"
)

// snippetWindow is the half-width of the term-density window used to pick
// the snippet anchor.
const snippetWindow = 50

// DefaultSnippetLength bounds snippet size when the caller does not specify one.
const DefaultSnippetLength = 200

// Snippet extracts a query-relevant excerpt of at most maxLength characters.
// The anchor is the content offset whose surrounding ±50-character window
// contains the most distinct query terms, so passages dense with terms win
// over the first bare occurrence. Partial words at either edge are trimmed
// and an ellipsis is appended when the excerpt stops before the content end.
// When no term occurs anywhere, the anchor defaults to position 0.
func Snippet(content string, queryTerms []string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSnippetLength
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if len(content) <= maxLength {
		return content
	}

	anchor := bestAnchor(content, queryTerms)

	start := anchor
	// Trim a partial leading word.
	if start > 0 && content[start-1] != ' ' {
		if next := strings.IndexByte(content[start:], ' '); next >= 0 {
			start += next + 1
		}
	}
	if start >= len(content) {
		start = 0
	}

	end := start + maxLength
	if end >= len(content) {
		return strings.TrimSpace(content[start:])
	}

	excerpt := content[start:end]
	// Trim a partial trailing word.
	if cut := strings.LastIndexByte(excerpt, ' '); cut > 0 {
		excerpt = excerpt[:cut]
	}
	return strings.TrimSpace(excerpt) + "..."
}

// MatchedTerms returns the distinct query terms that occur in content,
// preserving query order.
func MatchedTerms(content string, queryTerms []string) []string {
	lowered := strings.ToLower(content)
	matched := make([]string, 0, len(queryTerms))
	for _, term := range queryTerms {
		if term == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(term)) {
			matched = append(matched, term)
		}
	}
	return matched
}

// bestAnchor scans every term occurrence and scores it by how many distinct
// terms fall inside its ±snippetWindow neighborhood; the highest-scoring
// (earliest on ties) occurrence wins.
func bestAnchor(content string, queryTerms []string) int {
	lowered := strings.ToLower(content)

	type occurrence struct {
		pos  int
		term int
	}
	var occurrences []occurrence

	for ti, term := range queryTerms {
		term = strings.ToLower(term)
		if term == "" {
			continue
		}
		from := 0
		for {
			idx := strings.Index(lowered[from:], term)
			if idx < 0 {
				break
			}
			pos := from + idx
			occurrences = append(occurrences, occurrence{pos: pos, term: ti})
			from = pos + len(term)
		}
	}

	if len(occurrences) == 0 {
		return 0
	}

	sort.Slice(occurrences, func(i, j int) bool { return occurrences[i].pos < occurrences[j].pos })

	// Earliest occurrence wins ties, so scanning in position order and
	// requiring a strictly better score is enough.
	best := 0
	bestScore := 0
	for _, candidate := range occurrences {
		distinct := make(map[int]struct{})
		for _, other := range occurrences {
			if other.pos >= candidate.pos-snippetWindow && other.pos <= candidate.pos+snippetWindow {
				distinct[other.term] = struct{}{}
			}
		}
		if len(distinct) > bestScore {
			best = candidate.pos
			bestScore = len(distinct)
		}
	}
	return best
}
