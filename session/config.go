package session

const defaultMaxTurns = 100

// Config holds session initialization parameters.
type Config struct {
	MaxTurns int `json:"max_turns,omitempty"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{MaxTurns: defaultMaxTurns}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxTurns != 0 {
		c.MaxTurns = source.MaxTurns
	}
}

// New creates a Session from configuration. Currently returns an in-memory session.
func New(cfg *Config) (Session, error) {
	return NewMemorySession(cfg.MaxTurns), nil
}
