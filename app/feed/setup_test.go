package feed

import (
	"os"
	"sync"

	"github.com/bluepython508/news-rss/app/cfg"
)

var setupOnce sync.Once

// setupTestConfig loads the default configuration with os.Args cleared so
// go-flags does not trip over the test binary's arguments.
func setupTestConfig() {
	setupOnce.Do(func() {
		oldArgs := os.Args
		os.Args = []string{"test"}
		defer func() { os.Args = oldArgs }()

		cfg.Load()
	})
}
