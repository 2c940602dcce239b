package sources

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPollInterval = 3600 * time.Second
	minPollInterval     = 10 * time.Second
)

// Registry holds the set of configured feed sources. It is built once at
// startup and never mutated afterwards; per-source fetch state lives in the
// feed store instead.
type Registry struct {
	sources []Source
	byID    map[string]Source
}

func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("no sources defined in %s", path)
	}

	reg := &Registry{
		byID: make(map[string]Source, len(file.Sources)),
	}

	for i, entry := range file.Sources {
		src, err := newSource(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}

		if _, exists := reg.byID[src.ID]; exists {
			return nil, fmt.Errorf("duplicate source URL at index %d: %s", i, src.URL)
		}

		reg.sources = append(reg.sources, src)
		reg.byID[src.ID] = src

		slog.Debug("Source registered", "id", src.ID, "url", src.URL, "poll_interval", src.PollInterval)
	}

	return reg, nil
}

func newSource(entry sourceEntry) (Source, error) {
	if entry.URL == "" {
		return Source{}, fmt.Errorf("url is required")
	}

	parsed, err := url.Parse(entry.URL)
	if err != nil {
		return Source{}, fmt.Errorf("invalid url %q: %w", entry.URL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Source{}, fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}

	switch entry.FormatHint {
	case "", "rss", "atom":
	default:
		return Source{}, fmt.Errorf("invalid format_hint %q (expected rss or atom)", entry.FormatHint)
	}

	interval := DefaultPollInterval
	if entry.PollInterval > 0 {
		interval = time.Duration(entry.PollInterval) * time.Second
	}
	if interval < minPollInterval {
		interval = minPollInterval
	}

	return Source{
		ID:           DeriveID(entry.URL),
		URL:          entry.URL,
		FormatHint:   entry.FormatHint,
		PollInterval: interval,
	}, nil
}

// DeriveID returns the stable identifier for a source URL.
func DeriveID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:12]
}

func (r *Registry) All() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *Registry) Get(id string) (Source, bool) {
	src, ok := r.byID[id]
	return src, ok
}

func (r *Registry) Count() int {
	return len(r.sources)
}

// MinPollInterval is the scheduler tick period: the shortest interval any
// source asks for.
func (r *Registry) MinPollInterval() time.Duration {
	min := r.sources[0].PollInterval
	for _, src := range r.sources[1:] {
		if src.PollInterval < min {
			min = src.PollInterval
		}
	}
	return min
}
