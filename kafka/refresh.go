package kafka

import (
	"context"
	"log"
	"strings"
)

// RefreshCommand is the message published to request a corpus rebuild,
// typically by an upstream scheduler or a publishing CMS after a burst of
// new articles.
type RefreshCommand struct {
	Reason  string   `json:"reason,omitempty"`
	Feeds   []string `json:"feeds,omitempty"`
	Source  string   `json:"source,omitempty"`
	Urgency string   `json:"urgency,omitempty"`
}

// RefreshTrigger is the slice of the refresher the handler needs.
type RefreshTrigger interface {
	Trigger(ctx context.Context) error
}

// NewRefreshHandler returns a handler that kicks the corpus refresher for
// each refresh command. Commands are idempotent: concurrent triggers
// collapse into the refresh already in flight, so redelivery is harmless
// and every message is marked.
func NewRefreshHandler(refresher RefreshTrigger) MessageHandler {
	return &TypedMessageHandler[RefreshCommand]{
		AlwaysMark: true,
		Validate: func(cmd *RefreshCommand) bool {
			// An empty command is still a valid "refresh now".
			return true
		},
		Process: func(ctx context.Context, cmd *RefreshCommand) error {
			reason := strings.TrimSpace(cmd.Reason)
			if reason == "" {
				reason = "unspecified"
			}
			log.Printf("Corpus refresh requested via Kafka (reason: %s, source: %s)", reason, cmd.Source)
			if err := refresher.Trigger(ctx); err != nil {
				log.Printf("Kafka-triggered refresh failed: %v", err)
			}
			return nil
		},
	}
}
