package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bluepython508/news-rss/app/cfg"
	"github.com/bluepython508/news-rss/app/feed"
	"github.com/bluepython508/news-rss/app/metrics"
	"github.com/gin-gonic/gin"
)

func NewHandler(store *feed.Store) *Handler {
	return &Handler{
		store:     store,
		generator: feed.NewGenerator(),
	}
}

// GetFeed serves the current snapshot, negotiating the output format from
// the Accept header. RSS 2.0 is the default.
func (h *Handler) GetFeed(c *gin.Context) {
	accept := c.GetHeader("Accept")
	switch {
	case strings.Contains(accept, "application/atom+xml"):
		h.serveFeed(c, "atom")
	case strings.Contains(accept, "application/json"):
		h.serveFeed(c, "json")
	default:
		h.serveFeed(c, "rss")
	}
}

func (h *Handler) GetFeedRSS(c *gin.Context) {
	h.serveFeed(c, "rss")
}

func (h *Handler) GetFeedAtom(c *gin.Context) {
	h.serveFeed(c, "atom")
}

func (h *Handler) GetFeedJSON(c *gin.Context) {
	h.serveFeed(c, "json")
}

// serveFeed never triggers a fetch: it only renders what the scheduler has
// already published. Before the first successful cycle it answers with a
// distinct not-ready status instead of a generic server error.
func (h *Handler) serveFeed(c *gin.Context, format string) {
	snapshot := h.store.Read()
	if snapshot == nil {
		c.Header("Retry-After", "30")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "not ready",
			"message": "No feed snapshot has been published yet",
		})
		return
	}

	metrics.FeedRequests.WithLabelValues(format).Inc()

	etag := snapshotETag(snapshot)
	lastModified := snapshot.GeneratedAt.UTC().Format(http.TimeFormat)

	c.Header("ETag", etag)
	c.Header("Last-Modified", lastModified)
	c.Header("X-Feed-Items", strconv.Itoa(len(snapshot.Items)))

	if notModified(c.Request, etag, snapshot.GeneratedAt) {
		c.Status(http.StatusNotModified)
		return
	}

	switch format {
	case "atom":
		c.Header("Content-Type", "application/atom+xml; charset=utf-8")
		c.String(http.StatusOK, h.generator.Atom(snapshot))
	case "json":
		c.JSON(http.StatusOK, jsonView(snapshot))
	default:
		c.Header("Content-Type", "application/rss+xml; charset=utf-8")
		c.String(http.StatusOK, h.generator.RSS(snapshot))
	}
}

// GetHealth reports ready only after at least one snapshot has been
// published; the supervisor uses this for restart and backoff decisions.
func (h *Handler) GetHealth(c *gin.Context) {
	snapshot := h.store.Read()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"items":        len(snapshot.Items),
		"sources":      snapshot.SourceCount,
		"generated_at": snapshot.GeneratedAt.Format(time.RFC3339),
	})
}

func jsonView(snapshot *feed.Snapshot) jsonFeed {
	c := cfg.Get()

	items := make([]jsonItem, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, jsonItem{
			GUID:        item.GUID,
			SourceID:    item.SourceID,
			Title:       item.Title,
			Link:        item.Link,
			Summary:     item.Summary,
			PublishedAt: item.PublishedAt,
			Authors:     item.Authors,
			Categories:  item.Categories,
		})
	}

	return jsonFeed{
		Title:       c.Title,
		Description: c.Description,
		GeneratedAt: snapshot.GeneratedAt,
		SourceCount: snapshot.SourceCount,
		Items:       items,
	}
}

func snapshotETag(snapshot *feed.Snapshot) string {
	return fmt.Sprintf("%q", strconv.FormatInt(snapshot.GeneratedAt.UnixNano(), 16))
}

func notModified(req *http.Request, etag string, generatedAt time.Time) bool {
	if match := req.Header.Get("If-None-Match"); match != "" {
		// The header may carry a list, and each entry may be a weak validator.
		for _, candidate := range strings.Split(match, ",") {
			candidate = strings.TrimSpace(candidate)
			candidate = strings.TrimPrefix(candidate, "W/")
			if candidate == etag || candidate == "*" {
				return true
			}
		}
		return false
	}

	if since := req.Header.Get("If-Modified-Since"); since != "" {
		if t, err := http.ParseTime(since); err == nil {
			// http.TimeFormat has second precision
			return !generatedAt.Truncate(time.Second).After(t)
		}
	}

	return false
}
