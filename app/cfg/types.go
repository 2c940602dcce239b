package cfg

type Cfg struct {
	// Network configuration
	BindAddr string

	// Application configuration
	SourcesFile      string
	Workers          int
	FetchTimeout     int // seconds
	MaxBodySize      int64
	FailureThreshold int
	RetentionDays    int
	MaxItems         int

	// Feed metadata served to clients
	Title       string
	Description string
	BaseUrl     string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
