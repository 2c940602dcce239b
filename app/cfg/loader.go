package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	SourcesFile      string `long:"sources" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file enumerating upstream feed sources"`
	Workers          int    `long:"workers" env:"WORKERS" default:"5" description:"Maximum number of concurrent source fetches"`
	FetchTimeout     int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-fetch deadline in seconds"`
	MaxBodySize      int64  `long:"max-body-size" env:"MAX_BODY_SIZE" default:"10485760" description:"Maximum accepted feed payload in bytes"`
	FailureThreshold int    `long:"failure-threshold" env:"FAILURE_THRESHOLD" default:"3" description:"Consecutive failures before a source is skipped for one interval"`
	RetentionDays    int    `long:"retention-days" env:"RETENTION_DAYS" default:"30" description:"Drop items older than this many days"`
	MaxItems         int    `long:"max-items" env:"MAX_ITEMS" default:"1000" description:"Maximum number of items kept in the aggregated feed"`

	// Feed metadata served to clients
	Title       string `long:"title" env:"FEED_TITLE" default:"news-rss" description:"Title of the aggregated feed"`
	Description string `long:"description" env:"FEED_DESCRIPTION" default:"Aggregated news feed" description:"Description of the aggregated feed"`
	BaseUrl     string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"news-rss/1.0" description:"User agent string for upstream requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		BindAddr string `positional-arg-name:"bind-address" description:"Address to listen on (host:port)"`
	} `positional-args:"yes"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		BindAddr:         cmp.Or(raw.Args.BindAddr, "0.0.0.0:2048"),
		SourcesFile:      raw.SourcesFile,
		Workers:          raw.Workers,
		FetchTimeout:     raw.FetchTimeout,
		MaxBodySize:      raw.MaxBodySize,
		FailureThreshold: raw.FailureThreshold,
		RetentionDays:    raw.RetentionDays,
		MaxItems:         raw.MaxItems,
		Title:            raw.Title,
		Description:      raw.Description,
		BaseUrl:          raw.BaseUrl,
		UserAgent:        raw.UserAgent,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
