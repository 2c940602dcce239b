package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/bluepython508/news-rss/app/feed"
	"github.com/bluepython508/news-rss/app/metrics"
	"github.com/bluepython508/news-rss/app/sources"
)

// refreshResult is what one source contributes to a cycle. Items is non-nil
// only when the source returned a fresh payload that parsed successfully.
type refreshResult struct {
	source    sources.Source
	status    feed.FetchStatus
	items     []feed.Item
	validator feed.Validator
	fetchedAt time.Time
	err       error
}

// refreshSource runs the fetch and parse steps for one source. A parse
// failure is folded into the same failure path as a fetch error: the caller
// keeps the source's stale items and counts the failure.
func (s *Scheduler) refreshSource(ctx context.Context, src sources.Source) refreshResult {
	state := s.store.State(src.ID)

	result := s.fetcher.Run(ctx, src, state.Validator)

	out := refreshResult{
		source:    src,
		status:    result.Status,
		validator: result.Validator,
		fetchedAt: result.FetchedAt,
		err:       result.Err,
	}

	if result.Status != feed.StatusFresh {
		return out
	}

	items, dropped, err := s.parser.Run(result.Body, src.ID, src.FormatHint, result.FetchedAt)
	if err != nil {
		out.status = feed.StatusFailed
		out.err = err
		return out
	}

	if dropped > 0 {
		metrics.ItemsDropped.WithLabelValues("missing_fields").Add(float64(dropped))
	}

	out.items = items
	return out
}

// recordOutcome updates the per-source state table and metrics for one
// result. Fresh and not-modified outcomes both reset the failure counter.
func (s *Scheduler) recordOutcome(res refreshResult, now time.Time) {
	metrics.FetchTotal.WithLabelValues(res.source.ID, res.status.String()).Inc()

	nextFetch := now.Add(res.source.PollInterval)

	switch res.status {
	case feed.StatusFresh, feed.StatusNotModified:
		s.store.RecordSuccess(res.source.ID, res.validator, res.fetchedAt, nextFetch)
		slog.Debug("Source refreshed", "source", res.source.ID, "status", res.status.String(), "items", len(res.items))

	case feed.StatusFailed:
		// Re-probe on the next tick rather than waiting out the full poll
		// interval; once the failure threshold is crossed the circuit stays
		// open for one interval instead.
		s.store.RecordFailure(res.source.ID, res.fetchedAt, now,
			s.failureThreshold, now.Add(s.interval))
		slog.Warn("Source refresh failed", "source", res.source.ID, "url", res.source.URL, "error", res.err)
	}
}
