package sources

import (
	"time"
)

// Source is one upstream syndication endpoint. Immutable after registry load;
// identity is ID, derived from the URL.
type Source struct {
	ID           string
	URL          string
	FormatHint   string
	PollInterval time.Duration
}

type sourceEntry struct {
	URL          string `yaml:"url"`
	PollInterval int    `yaml:"poll_interval"` // seconds
	FormatHint   string `yaml:"format_hint"`
}

type registryFile struct {
	Sources []sourceEntry `yaml:"sources"`
}
