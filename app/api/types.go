package api

import (
	"time"

	"github.com/bluepython508/news-rss/app/feed"
)

type GeneratorInterface interface {
	RSS(snapshot *feed.Snapshot) string
	Atom(snapshot *feed.Snapshot) string
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	store     *feed.Store
	generator GeneratorInterface
}

// jsonFeed is the JSON rendering of a snapshot.
type jsonFeed struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	GeneratedAt time.Time  `json:"generated_at"`
	SourceCount int        `json:"source_count"`
	Items       []jsonItem `json:"items"`
}

type jsonItem struct {
	GUID        string    `json:"guid"`
	SourceID    string    `json:"source_id"`
	Title       string    `json:"title,omitempty"`
	Link        string    `json:"link,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Authors     []string  `json:"authors,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
}
