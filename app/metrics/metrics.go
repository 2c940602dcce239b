package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsrss_fetch_total",
		Help: "The total number of source fetches by outcome",
	}, []string{"source", "outcome"})
	RefreshCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsrss_refresh_cycle_seconds",
		Help:    "Duration of refresh cycles",
		Buckets: prometheus.DefBuckets,
	})
	SnapshotItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsrss_snapshot_items",
		Help: "Number of items in the current published snapshot",
	})
	SnapshotSources = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsrss_snapshot_sources",
		Help: "Number of registered sources covered by the current snapshot",
	})
	ItemsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsrss_items_dropped_total",
		Help: "Items dropped during normalization by reason",
	}, []string{"reason"})
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsrss_feed_requests_total",
		Help: "The total number of feed requests by format",
	}, []string{"format"})
)
