package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/avi-assistant/avicore/dialogue"
	"github.com/avi-assistant/avicore/locale"
	"github.com/avi-assistant/avicore/memory"
	"github.com/avi-assistant/avicore/session"
	"github.com/avi-assistant/avicore/skills"
)

const defaultObserver = "slog"

// NLUConfig locates the external intent recognizer.
type NLUConfig struct {
	URL     string `json:"url,omitempty"`     // Empty disables recognition.
	Timeout string `json:"timeout,omitempty"` // e.g. "5s".
}

// Merge applies non-zero values from source into c.
func (c *NLUConfig) Merge(source *NLUConfig) {
	if source.URL != "" {
		c.URL = source.URL
	}
	if source.Timeout != "" {
		c.Timeout = source.Timeout
	}
}

// RequestTimeout returns the parsed Timeout, or five seconds.
func (c *NLUConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// TransportConfig configures the Connect ingress.
type TransportConfig struct {
	Addr string `json:"addr,omitempty"` // Empty disables the server.
}

// Merge applies non-zero values from source into c.
func (c *TransportConfig) Merge(source *TransportConfig) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
}

// Config holds initialization parameters for all kernel subsystems.
// Each subsystem section delegates to that subsystem's config-driven constructor.
type Config struct {
	Memory    memory.Config   `json:"memory"`
	Reply     dialogue.Config `json:"reply"`
	Skills    skills.Config   `json:"skills"`
	Locale    locale.Config   `json:"locale"`
	Session   session.Config  `json:"session"`
	NLU       NLUConfig       `json:"nlu"`
	Transport TransportConfig `json:"transport"`
	Observer  string          `json:"observer,omitempty"` // Comma-separated registered observer names.
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Memory:   memory.DefaultConfig(),
		Reply:    dialogue.DefaultConfig(),
		Skills:   skills.DefaultConfig(),
		Locale:   locale.DefaultConfig(),
		Session:  session.DefaultConfig(),
		Observer: defaultObserver,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Memory.Merge(&source.Memory)
	c.Reply.Merge(&source.Reply)
	c.Skills.Merge(&source.Skills)
	c.Locale.Merge(&source.Locale)
	c.Session.Merge(&source.Session)
	c.NLU.Merge(&source.NLU)
	c.Transport.Merge(&source.Transport)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
