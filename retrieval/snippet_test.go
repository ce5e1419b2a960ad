package retrieval

import (
	"strings"
	"testing"
)

func TestSnippetShortContentReturnedWhole(t *testing.T) {
	content := "A short passage about markets."
	got := Snippet(content, []string{"markets"}, 200)
	if got != content {
		t.Errorf("short content altered: %q", got)
	}
	if strings.HasSuffix(got, "...") {
		t.Error("unexpected ellipsis on untruncated content")
	}
}

func TestSnippetAnchorsOnDenseWindow(t *testing.T) {
	// "tariffs" appears early alone, but the dense passage holds both terms.
	content := strings.Repeat("Unrelated filler text goes on and on here. ", 6) +
		"tariffs were mentioned once. " +
		strings.Repeat("More filler to push the passages apart widely. ", 6) +
		"New tariffs on steel imports were announced and steel producers reacted sharply to the move."

	got := Snippet(content, []string{"tariffs", "steel"}, 120)
	if !strings.Contains(got, "steel") {
		t.Errorf("snippet missed the dense passage: %q", got)
	}
	if !strings.Contains(got, "tariffs") {
		t.Errorf("snippet missing anchor term: %q", got)
	}
}

func TestSnippetEllipsisOnTruncation(t *testing.T) {
	content := strings.Repeat("word ", 100) + "anchor " + strings.Repeat("tail ", 100)
	got := Snippet(content, []string{"anchor"}, 80)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if len(got) > 80+3 {
		t.Errorf("snippet exceeds bound: %d chars", len(got))
	}
}

func TestSnippetNoTermFallsBackToStart(t *testing.T) {
	content := strings.Repeat("alpha beta gamma delta ", 50)
	got := Snippet(content, []string{"zeta"}, 60)
	if !strings.HasPrefix(content, strings.TrimSuffix(got, "...")) {
		t.Errorf("fallback snippet not taken from the start: %q", got)
	}
}

func TestSnippetNoPartialWords(t *testing.T) {
	content := strings.Repeat("abcdefghij ", 60) + "needle " + strings.Repeat("klmnopqrst ", 60)
	got := Snippet(content, []string{"needle"}, 90)

	trimmed := strings.TrimSuffix(got, "...")
	for _, word := range strings.Fields(trimmed) {
		if word != "needle" && word != "abcdefghij" && word != "klmnopqrst" {
			t.Errorf("partial word %q in snippet %q", word, got)
		}
	}
}

func TestSnippetEmptyContent(t *testing.T) {
	if got := Snippet("   ", []string{"term"}, 100); got != "" {
		t.Errorf("expected empty snippet, got %q", got)
	}
}

func TestMatchedTerms(t *testing.T) {
	content := "The Central Bank raised Interest rates again."
	got := MatchedTerms(content, []string{"interest", "rates", "inflation", ""})
	if len(got) != 2 || got[0] != "interest" || got[1] != "rates" {
		t.Errorf("MatchedTerms = %v, want [interest rates]", got)
	}
}
