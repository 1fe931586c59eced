package dialogue

import "time"

const (
	defaultTimeoutSecs = 30
	defaultMaxRetries  = 3
)

// Config bounds a pending reply. A negative MaxRetries disables the retry
// cap.
type Config struct {
	TimeoutSecs int `json:"timeout_secs,omitempty"`
	// MaxRetries counts re-asks: with n, n rejected answers are asked again
	// and rejection n+1 abandons the question. Zero abandons on the first.
	MaxRetries *int `json:"max_retries,omitempty"`
}

// DefaultConfig returns a 30 second timeout and a cap of 3 retries.
func DefaultConfig() Config {
	retries := defaultMaxRetries
	return Config{
		TimeoutSecs: defaultTimeoutSecs,
		MaxRetries:  &retries,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.TimeoutSecs > 0 {
		c.TimeoutSecs = source.TimeoutSecs
	}
	if source.MaxRetries != nil {
		retries := *source.MaxRetries
		c.MaxRetries = &retries
	}
}

// Timeout returns the reply timeout, defaulting to 30 seconds.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return defaultTimeoutSecs * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryLimit returns the retry cap and whether one is configured.
func (c *Config) RetryLimit() (int, bool) {
	if c.MaxRetries == nil || *c.MaxRetries < 0 {
		return 0, false
	}
	return *c.MaxRetries, true
}
