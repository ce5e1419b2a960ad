package retrieval

import (
	"testing"
	"time"

	"newsrag/types"
)

func TestBuildFilterEmptyOptions(t *testing.T) {
	filter := BuildFilter(types.SearchOptions{}.Resolve())
	if filter != nil {
		t.Errorf("expected nil filter for empty options, got %v", filter)
	}
}

func TestBuildFilterSources(t *testing.T) {
	opts := types.SearchOptions{Sources: []string{"BBC", "Reuters"}}.Resolve()
	filter := BuildFilter(opts)
	if filter == nil {
		t.Fatal("expected a filter")
	}

	must := filter["must"].([]map[string]interface{})
	if len(must) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(must))
	}
	if must[0]["key"] != "source" {
		t.Errorf("clause key = %v, want source", must[0]["key"])
	}
	match := must[0]["match"].(map[string]interface{})
	any := match["any"].([]string)
	if len(any) != 2 || any[0] != "BBC" || any[1] != "Reuters" {
		t.Errorf("sources clause = %v", any)
	}
}

func TestBuildFilterCombinesClauses(t *testing.T) {
	after := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	opts := types.SearchOptions{
		Sources:         []string{"BBC"},
		Categories:      []string{"business"},
		PublishedAfter:  &after,
		PublishedBefore: &before,
		ContentType:     "content",
	}.Resolve()

	filter := BuildFilter(opts)
	if filter == nil {
		t.Fatal("expected a filter")
	}
	must := filter["must"].([]map[string]interface{})
	if len(must) != 4 {
		t.Fatalf("expected 4 AND-ed clauses, got %d", len(must))
	}

	keys := make(map[string]map[string]interface{})
	for _, clause := range must {
		keys[clause["key"].(string)] = clause
	}
	for _, want := range []string{"source", "category", "published_date", "type"} {
		if _, ok := keys[want]; !ok {
			t.Errorf("missing clause for %q", want)
		}
	}

	dateRange := keys["published_date"]["range"].(map[string]interface{})
	if dateRange["gte"] != after.Format(time.RFC3339) {
		t.Errorf("gte = %v, want %v", dateRange["gte"], after.Format(time.RFC3339))
	}
	if dateRange["lte"] != before.Format(time.RFC3339) {
		t.Errorf("lte = %v, want %v", dateRange["lte"], before.Format(time.RFC3339))
	}

	typeMatch := keys["type"]["match"].(map[string]interface{})
	if typeMatch["value"] != "content" {
		t.Errorf("type clause = %v", typeMatch)
	}
}

func TestBuildFilterOpenEndedDateRange(t *testing.T) {
	after := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	filter := BuildFilter(types.SearchOptions{PublishedAfter: &after}.Resolve())
	if filter == nil {
		t.Fatal("expected a filter")
	}

	must := filter["must"].([]map[string]interface{})
	dateRange := must[0]["range"].(map[string]interface{})
	if _, ok := dateRange["gte"]; !ok {
		t.Error("expected gte bound")
	}
	if _, ok := dateRange["lte"]; ok {
		t.Error("unexpected lte bound in open-ended range")
	}
}
