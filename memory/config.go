package memory

import (
	"fmt"
	"path/filepath"
	"time"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	defaultCleanupInterval = 5 * time.Minute
)

// Config holds context store initialization parameters.
type Config struct {
	Path            string `json:"path,omitempty"`             // Persistence root; empty keeps context in memory only.
	Backend         string `json:"backend,omitempty"`          // "file" (default) or "sqlite".
	CleanupInterval string `json:"cleanup_interval,omitempty"` // Sweep period, e.g. "5m".
}

// DefaultConfig returns the default configuration: in-memory only, file
// backend when a path is set, sweep every five minutes.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendFile,
		CleanupInterval: "5m",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.CleanupInterval != "" {
		c.CleanupInterval = source.CleanupInterval
	}
}

// Interval returns the parsed sweep period, falling back to five minutes
// when unset or malformed.
func (c *Config) Interval() time.Duration {
	d, err := ParseTTL(c.CleanupInterval)
	if err != nil || d <= 0 {
		return defaultCleanupInterval
	}
	return d
}

// NewPersister creates a Persister from configuration. Returns a nil
// Persister when Path is empty, indicating persistence is disabled.
func NewPersister(cfg *Config) (Persister, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path), nil
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(cfg.Path, "context.db"))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
