package skills

import "time"

const (
	defaultPath    = "skills"
	defaultTimeout = 30 * time.Second
)

// Config locates the skills directory and bounds skill processes.
type Config struct {
	Path        string `json:"path,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
	Timeout     string `json:"timeout,omitempty"` // Per-run process limit, e.g. "30s".
}

// DefaultConfig reads skills from ./skills.
func DefaultConfig() Config {
	return Config{Path: defaultPath, Timeout: "30s"}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Concurrency > 0 {
		c.Concurrency = source.Concurrency
	}
	if source.Timeout != "" {
		c.Timeout = source.Timeout
	}
}

// ProcessTimeout returns the parsed Timeout, falling back to thirty seconds
// when unset or malformed.
func (c *Config) ProcessTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}
