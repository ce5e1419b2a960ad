package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"newsrag/config"
	"newsrag/vectorstore"
)

// RefreshState names the refresher's lifecycle phases.
type RefreshState string

const (
	RefreshIdle    RefreshState = "idle"
	RefreshRunning RefreshState = "running"
	RefreshError   RefreshState = "error"
)

// RefreshStatus is a snapshot of the refresher for the admin API.
type RefreshStatus struct {
	State       RefreshState `json:"state"`
	LastRun     time.Time    `json:"last_run,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
	LastSummary Summary      `json:"last_summary"`
	Collection  string       `json:"collection,omitempty"`
}

// Refresher periodically rebuilds the article corpus. Each refresh ingests
// into a fresh versioned collection and then swaps the serving alias, so
// request handlers reading through the alias never observe a half-updated
// corpus. Start and Stop bound its lifecycle; Trigger runs one refresh
// out of cycle.
type Refresher struct {
	pipeline *Pipeline
	store    *vectorstore.Qdrant
	alias    string
	feeds    []string
	perFeed  int
	interval time.Duration

	mu      sync.Mutex
	status  RefreshStatus
	running bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRefresher builds a refresher serving the given alias. interval <= 0
// falls back to the configured default.
func NewRefresher(pipeline *Pipeline, store *vectorstore.Qdrant, alias string, feeds []string, perFeed int, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = config.RefreshInterval
	}
	return &Refresher{
		pipeline: pipeline,
		store:    store,
		alias:    alias,
		feeds:    feeds,
		perFeed:  perFeed,
		interval: interval,
		status:   RefreshStatus{State: RefreshIdle},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the periodic refresh loop. The first refresh runs
// immediately so a cold deployment serves data as soon as possible.
func (r *Refresher) Start(ctx context.Context) {
	go func() {
		defer close(r.doneCh)

		if err := r.Trigger(ctx); err != nil {
			log.Printf("Initial corpus refresh failed: %v", err)
		}

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Trigger(ctx); err != nil {
					log.Printf("Scheduled corpus refresh failed: %v", err)
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the refresh loop and waits for any in-flight refresh to finish.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

// Trigger runs one refresh. Concurrent triggers are collapsed: a refresh
// already in flight makes Trigger return immediately.
func (r *Refresher) Trigger(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.status.State = RefreshRunning
	r.mu.Unlock()

	summary, collection, err := r.refresh(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.status.LastRun = time.Now()
	if err != nil {
		r.status.State = RefreshError
		r.status.LastError = err.Error()
		return err
	}
	r.status.State = RefreshIdle
	r.status.LastError = ""
	r.status.LastSummary = summary
	r.status.Collection = collection
	return nil
}

// refresh builds the new corpus version and swaps the alias. The previous
// version is dropped only after the swap succeeds.
func (r *Refresher) refresh(ctx context.Context) (Summary, string, error) {
	previous := r.currentCollection()
	versioned := fmt.Sprintf("%s_v%d", r.alias, time.Now().Unix())

	fresh, err := r.store.WithCollection(ctx, versioned)
	if err != nil {
		return Summary{}, "", fmt.Errorf("create collection %s: %w", versioned, err)
	}

	summary, err := r.pipeline.RunOnce(ctx, r.feeds, r.perFeed, fresh)
	if err != nil {
		// Leave the serving alias untouched; reap the partial build.
		if dropErr := r.store.DropCollection(ctx, versioned); dropErr != nil {
			log.Printf("Warning: failed to drop partial collection %s: %v", versioned, dropErr)
		}
		return summary, "", err
	}

	if err := r.store.SwapAlias(ctx, r.alias, versioned); err != nil {
		return summary, "", err
	}

	if previous != "" && previous != versioned {
		if err := r.store.DropCollection(ctx, previous); err != nil {
			log.Printf("Warning: failed to drop previous collection %s: %v", previous, err)
		}
	}

	return summary, versioned, nil
}

func (r *Refresher) currentCollection() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.Collection
}

// Status returns a snapshot of the refresher's state.
func (r *Refresher) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
