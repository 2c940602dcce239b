package tasks

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bluepython508/news-rss/app/cfg"
	"github.com/bluepython508/news-rss/app/feed"
	"github.com/bluepython508/news-rss/app/metrics"
	"github.com/bluepython508/news-rss/app/sources"
)

// Scheduler drives the refresh pipeline: on each tick it selects the sources
// due for a fetch, fans them out with bounded concurrency, merges the results
// into a new snapshot, and publishes it to the store. It is the only writer
// of the snapshot reference.
type Scheduler struct {
	registry         *sources.Registry
	store            *feed.Store
	fetcher          *feed.Fetcher
	parser           *feed.Parser
	aggregator       *feed.Aggregator
	interval         time.Duration
	workers          int
	failureThreshold int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
}

func NewScheduler(registry *sources.Registry, store *feed.Store, httpClient *http.Client) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		registry:         registry,
		store:            store,
		fetcher:          feed.NewFetcher(httpClient),
		parser:           feed.NewParser(),
		aggregator:       feed.NewAggregator(registry.Count()),
		interval:         registry.MinPollInterval(),
		workers:          c.Workers,
		failureThreshold: c.FailureThreshold,
		ctx:              ctx,
		cancel:           cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("Scheduler started", "interval", s.interval, "workers", s.workers, "sources", s.registry.Count())

		s.runCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runCycle()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// runCycle executes one refresh pass. Every dispatched fetch carries its own
// deadline, so waiting for all of them is a bounded wait; a hung upstream
// surfaces as a timeout failure and never stalls the rest of the cycle.
// Sources still marked in flight from a previous cycle are skipped, never
// fetched concurrently with themselves.
func (s *Scheduler) runCycle() {
	started := time.Now()
	now := started.UTC()

	var due []sources.Source
	for _, src := range s.registry.All() {
		if s.store.Due(src.ID, now) {
			due = append(due, src)
		}
	}

	if len(due) == 0 {
		slog.Debug("No sources due for refresh")
		return
	}

	slog.Debug("Refresh cycle started", "due", len(due))

	results := make(chan refreshResult, len(due))
	sem := make(chan struct{}, s.workers)

	for _, src := range due {
		s.store.SetInFlight(src.ID, true)

		s.wg.Add(1)
		go func(src sources.Source) {
			defer s.wg.Done()
			defer s.store.SetInFlight(src.ID, false)

			sem <- struct{}{}
			defer func() { <-sem }()

			results <- s.refreshSource(s.ctx, src)
		}(src)
	}

	refreshed := make(map[string][]feed.Item)
	for range due {
		res := <-results
		s.recordOutcome(res, now)

		// NotModified and failures keep the previous contribution; only a
		// fresh, parsed payload replaces a source's item set.
		if res.status == feed.StatusFresh && res.items != nil {
			refreshed[res.source.ID] = res.items
		}
	}

	previous := s.store.Read()
	if previous == nil && len(refreshed) == 0 {
		slog.Warn("No source succeeded yet, snapshot not published")
		metrics.RefreshCycleDuration.Observe(time.Since(started).Seconds())
		return
	}

	snapshot := s.aggregator.Merge(previous, refreshed)
	s.store.Publish(snapshot)

	metrics.RefreshCycleDuration.Observe(time.Since(started).Seconds())
	metrics.SnapshotItems.Set(float64(len(snapshot.Items)))
	metrics.SnapshotSources.Set(float64(snapshot.SourceCount))

	slog.Info("Refresh cycle completed",
		"duration", time.Since(started),
		"refreshed", len(refreshed),
		"due", len(due),
		"items", len(snapshot.Items))
}
