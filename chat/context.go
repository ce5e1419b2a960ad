package chat

import (
	"regexp"
	"strings"

	"newsrag/types"
)

// TokenEstimator converts message content into an estimated token cost.
// The default is a documented approximation, not a tokenizer; swap it out
// when an exact count matters.
type TokenEstimator func(content string) int

// EstimateTokens is the default estimator: ceil(len(content)/4).
func EstimateTokens(content string) int {
	return (len(content) + 3) / 4
}

// AssembledContext is the token-bounded slice of a conversation kept for
// prompting, in chronological order.
type AssembledContext struct {
	Messages     []types.ConversationMessage
	TotalTokens  int
	TrimmedCount int
}

// Assembler selects which conversation messages fit a token budget. It
// never mutates its inputs; a given history and budget always produce the
// same kept set.
type Assembler struct {
	estimate TokenEstimator
}

// NewAssembler builds an assembler; a nil estimator gets the default.
func NewAssembler(estimate TokenEstimator) *Assembler {
	if estimate == nil {
		estimate = EstimateTokens
	}
	return &Assembler{estimate: estimate}
}

// Assemble walks history newest-first, keeping messages while the running
// estimate stays within budget, then restores chronological order. Older
// messages beyond the budget are discarded and counted in TrimmedCount.
func (a *Assembler) Assemble(history []types.ConversationMessage, tokenBudget int) AssembledContext {
	if tokenBudget <= 0 || len(history) == 0 {
		return AssembledContext{Messages: []types.ConversationMessage{}, TrimmedCount: len(history)}
	}

	kept := make([]types.ConversationMessage, 0, len(history))
	total := 0
	for i := len(history) - 1; i >= 0; i-- {
		cost := a.estimate(history[i].Content)
		if total+cost > tokenBudget {
			break
		}
		kept = append(kept, history[i])
		total += cost
	}

	// Reverse to restore chronological order (oldest-of-kept first).
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return AssembledContext{
		Messages:     kept,
		TotalTokens:  total,
		TrimmedCount: len(history) - len(kept),
	}
}

// IntentClassifier decides when a turn needs retrieval and how to rewrite
// follow-up questions. The keyword and pattern lists are configuration
// data, unit-testable and replaceable without touching pipeline control flow.
type IntentClassifier struct {
	InfoKeywords       []string
	QuestionPatterns   []*regexp.Regexp
	FollowUpPrefixes   []string
	EntityLookupPrefix string
}

// DefaultIntentClassifier returns the built-in heuristic configuration.
func DefaultIntentClassifier() *IntentClassifier {
	return &IntentClassifier{
		InfoKeywords: []string{
			"news", "article", "report", "latest", "update", "happened",
			"announce", "launch", "release", "develop", "breaking",
			"recent", "current",
		},
		// Deliberately narrow so smalltalk openers ("how are you")
		// do not trigger retrieval.
		QuestionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^what('s| is| are| was| were| happened)\b`),
			regexp.MustCompile(`(?i)^(who|whom|whose|why)\b`),
			regexp.MustCompile(`(?i)^(when|where)\b.+\?`),
			regexp.MustCompile(`(?i)^how (much|many|did|do|does)\b`),
			regexp.MustCompile(`(?i)\b(tell me about|explain|describe|summari[sz]e)\b`),
		},
		FollowUpPrefixes: []string{
			"what about", "how about", "tell me more", "more about",
			"elaborate", "go on", "and then", "why is that", "can you expand",
		},
		EntityLookupPrefix: "tell me about:",
	}
}

// ShouldUseContext reports whether retrieval should run for this turn:
// true when the message carries an information-seeking keyword, matches an
// interrogative pattern, or any of the last three user turns did. False
// positives cost an unnecessary retrieval; false negatives only degrade
// answer quality, never error.
func (ic *IntentClassifier) ShouldUseContext(message string, history []types.ConversationMessage) bool {
	if ic.seeksInformation(message) {
		return true
	}

	userTurns := 0
	for i := len(history) - 1; i >= 0 && userTurns < 3; i-- {
		if history[i].Role != types.RoleUser {
			continue
		}
		userTurns++
		if ic.containsInfoKeyword(history[i].Content) {
			return true
		}
	}
	return false
}

func (ic *IntentClassifier) seeksInformation(message string) bool {
	if ic.containsInfoKeyword(message) {
		return true
	}
	for _, pattern := range ic.QuestionPatterns {
		if pattern.MatchString(message) {
			return true
		}
	}
	return false
}

func (ic *IntentClassifier) containsInfoKeyword(message string) bool {
	lowered := strings.ToLower(message)
	for _, keyword := range ic.InfoKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// EnhanceQuery rewrites follow-up questions so retrieval has a subject to
// search for. A follow-up whose history contains an entity-lookup turn
// (recognized by the sentinel prefix) is concatenated with that entity;
// otherwise the last two user turns are appended. Non-follow-up messages
// pass through unchanged to avoid polluting the search.
func (ic *IntentClassifier) EnhanceQuery(message string, history []types.ConversationMessage) string {
	if !ic.isFollowUp(message) {
		return message
	}

	if entity := ic.lastLookupEntity(history); entity != "" {
		return strings.TrimSpace(message + " " + entity)
	}

	var recent []string
	for i := len(history) - 1; i >= 0 && len(recent) < 2; i-- {
		if history[i].Role == types.RoleUser {
			recent = append(recent, history[i].Content)
		}
	}
	if len(recent) == 0 {
		return message
	}
	// Restore chronological order of the appended turns.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return strings.TrimSpace(message + " " + strings.Join(recent, " "))
}

func (ic *IntentClassifier) isFollowUp(message string) bool {
	lowered := strings.ToLower(strings.TrimSpace(message))
	for _, prefix := range ic.FollowUpPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

// lastLookupEntity walks history newest-first for a user turn with the
// entity-lookup sentinel and returns the entity it names.
func (ic *IntentClassifier) lastLookupEntity(history []types.ConversationMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != types.RoleUser {
			continue
		}
		lowered := strings.ToLower(history[i].Content)
		if idx := strings.Index(lowered, ic.EntityLookupPrefix); idx >= 0 {
			entity := history[i].Content[idx+len(ic.EntityLookupPrefix):]
			return strings.TrimSpace(entity)
		}
	}
	return ""
}
