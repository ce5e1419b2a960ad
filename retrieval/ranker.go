package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"newsrag/types"
)

// Rank sorts hits by descending similarity score and greedily selects a
// diverse top-K by suppressing near-duplicate titles. A candidate is
// rejected when the Jaccard similarity between its title and any already
// accepted title exceeds diversityThreshold.
//
// Input hits are never mutated. Empty input or targetCount 0 yields an
// empty result; a negative targetCount is a contract violation.
func Rank(hits []types.SearchHit, targetCount int, diversityThreshold float32) ([]types.RankedResult, error) {
	if targetCount < 0 {
		return nil, fmt.Errorf("%w: targetCount must be non-negative, got %d", types.ErrInvalidInput, targetCount)
	}
	if len(hits) == 0 || targetCount == 0 {
		return []types.RankedResult{}, nil
	}

	// Stable sort: the store already returns score-descending order, so
	// ties keep their incoming relative position.
	sorted := make([]types.SearchHit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	results := make([]types.RankedResult, 0, targetCount)
	acceptedTitles := make([][]string, 0, targetCount)

	for _, hit := range sorted {
		tokens := tokenizeTitle(hit.Payload.Title)

		duplicate := false
		for _, accepted := range acceptedTitles {
			if jaccard(tokens, accepted) > diversityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		results = append(results, types.RankedResult{
			SearchHit: hit,
			Attribution: types.Attribution{
				Title:         hit.Payload.Title,
				Source:        hit.Payload.Source,
				URL:           hit.Payload.URL,
				PublishedDate: hit.Payload.PublishedDate,
			},
		})
		acceptedTitles = append(acceptedTitles, tokens)

		if len(results) == targetCount {
			break
		}
	}

	return results, nil
}

// tokenizeTitle lowercases and splits a title into its distinct word set.
func tokenizeTitle(title string) []string {
	fields := strings.Fields(strings.ToLower(title))
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		cleaned := strings.Trim(field, ".,;:!?\"'()[]{}")
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		tokens = append(tokens, cleaned)
	}
	return tokens
}

// jaccard computes intersection-over-union of two word sets.
// Two empty titles are treated as identical (similarity 1).
func jaccard(a, b []string) float32 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(a))
	for _, token := range a {
		seen[token] = struct{}{}
	}

	intersection := 0
	for _, token := range b {
		if _, ok := seen[token]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float32(intersection) / float32(union)
}
