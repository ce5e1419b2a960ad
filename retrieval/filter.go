package retrieval

import (
	"time"

	"newsrag/types"
)

// BuildFilter translates resolved search options into a vector-store filter
// expression. Returns nil when no dimension is populated: an empty-but-
// present filter would silently match nothing.
//
// Each populated dimension becomes one required (AND-ed) clause; the
// multi-valued dimensions (sources, categories) OR-match within their clause.
func BuildFilter(opts types.ResolvedSearchOptions) map[string]interface{} {
	var must []map[string]interface{}

	if len(opts.Sources) > 0 {
		must = append(must, map[string]interface{}{
			"key":   "source",
			"match": map[string]interface{}{"any": opts.Sources},
		})
	}

	if len(opts.Categories) > 0 {
		must = append(must, map[string]interface{}{
			"key":   "category",
			"match": map[string]interface{}{"any": opts.Categories},
		})
	}

	if opts.PublishedAfter != nil || opts.PublishedBefore != nil {
		dateRange := map[string]interface{}{}
		if opts.PublishedAfter != nil {
			dateRange["gte"] = opts.PublishedAfter.Format(time.RFC3339)
		}
		if opts.PublishedBefore != nil {
			dateRange["lte"] = opts.PublishedBefore.Format(time.RFC3339)
		}
		must = append(must, map[string]interface{}{
			"key":   "published_date",
			"range": dateRange,
		})
	}

	if opts.ContentType != "" {
		must = append(must, map[string]interface{}{
			"key":   "type",
			"match": map[string]interface{}{"value": opts.ContentType},
		})
	}

	if len(must) == 0 {
		return nil
	}
	return map[string]interface{}{"must": must}
}
