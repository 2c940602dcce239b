package feed

import (
	"time"
)

// Item is a normalized feed entry. Two items with the same GUID are the same
// logical item regardless of which source or fetch cycle produced them.
type Item struct {
	GUID        string
	SourceID    string
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
	Authors     []string
	Categories  []string
	ContentHash string
}

// Snapshot is the aggregated, deduplicated, sorted view served to clients.
// It is never mutated after construction; a refresh cycle builds a new one
// and swaps it in whole.
type Snapshot struct {
	Items       []Item
	GeneratedAt time.Time
	SourceCount int
}

type FetchStatus int

const (
	StatusFresh FetchStatus = iota
	StatusNotModified
	StatusFailed
)

func (s FetchStatus) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusNotModified:
		return "not_modified"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// FetchResult is the transient outcome of fetching one source. Body is only
// set for StatusFresh and is discarded after the pipeline pass.
type FetchResult struct {
	SourceID  string
	Status    FetchStatus
	Body      []byte
	Validator Validator
	Err       error
	FetchedAt time.Time
}

// Validator carries the HTTP conditional-request metadata captured from the
// last fresh response.
type Validator struct {
	ETag         string
	LastModified string
}

// SourceState is the mutable fetch bookkeeping for one source. The registry
// entry itself stays immutable; everything that changes between cycles lives
// here, guarded by the store.
type SourceState struct {
	Validator           Validator
	ConsecutiveFailures int
	LastSuccess         time.Time
	LastFailure         time.Time
	NextFetchAt         time.Time
	CircuitOpenUntil    time.Time
	InFlight            bool
}
