package feed

import (
	"sort"
	"time"

	"github.com/bluepython508/news-rss/app/cfg"
	"github.com/bluepython508/news-rss/app/metrics"
)

type Aggregator struct {
	retention   time.Duration
	maxItems    int
	sourceCount int
}

func NewAggregator(sourceCount int) *Aggregator {
	c := cfg.Get()

	return &Aggregator{
		retention:   time.Duration(c.RetentionDays) * 24 * time.Hour,
		maxItems:    c.MaxItems,
		sourceCount: sourceCount,
	}
}

// Merge builds a new snapshot from the previous one and the items produced by
// sources refreshed this cycle. Sources absent from refreshed keep their
// previous contribution unchanged, so a failed or not-modified source never
// loses items it reported earlier. A source present in refreshed has its
// contribution replaced wholesale: the upstream payload is authoritative for
// that source, which drops items the upstream has removed.
//
// The output is deterministic for a given input regardless of map iteration
// order: newest PublishedAt first, ties broken by ascending GUID.
func (a *Aggregator) Merge(previous *Snapshot, refreshed map[string][]Item) *Snapshot {
	byGUID := make(map[string]Item)

	if previous != nil {
		for _, item := range previous.Items {
			if _, replaced := refreshed[item.SourceID]; replaced {
				continue
			}
			keep(byGUID, item)
		}
	}

	for _, items := range refreshed {
		for _, item := range items {
			keep(byGUID, item)
		}
	}

	now := time.Now().UTC()
	horizon := now.Add(-a.retention)

	expired := 0
	merged := make([]Item, 0, len(byGUID))
	for _, item := range byGUID {
		if item.PublishedAt.Before(horizon) {
			expired++
			continue
		}
		merged = append(merged, item)
	}
	if expired > 0 {
		metrics.ItemsDropped.WithLabelValues("retention").Add(float64(expired))
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].PublishedAt.Equal(merged[j].PublishedAt) {
			return merged[i].PublishedAt.After(merged[j].PublishedAt)
		}
		return merged[i].GUID < merged[j].GUID
	})

	// The slice is newest-first, so truncating drops the oldest items.
	if a.maxItems > 0 && len(merged) > a.maxItems {
		metrics.ItemsDropped.WithLabelValues("capacity").Add(float64(len(merged) - a.maxItems))
		merged = merged[:a.maxItems]
	}

	return &Snapshot{
		Items:       merged,
		GeneratedAt: now,
		SourceCount: a.sourceCount,
	}
}

// keep resolves GUID collisions: the later PublishedAt wins, and on equal
// timestamps an item with a summary beats one without.
func keep(byGUID map[string]Item, item Item) {
	existing, ok := byGUID[item.GUID]
	if !ok {
		byGUID[item.GUID] = item
		return
	}

	switch {
	case item.PublishedAt.After(existing.PublishedAt):
		byGUID[item.GUID] = item
	case item.PublishedAt.Equal(existing.PublishedAt) && existing.Summary == "" && item.Summary != "":
		byGUID[item.GUID] = item
	}
}
