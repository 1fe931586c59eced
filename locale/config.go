package locale

import (
	"errors"
	"log/slog"
)

const defaultCode = "en"

// Config selects the active language and an optional directory of catalog
// files layered over the built-in English phrases.
type Config struct {
	Code string `json:"code,omitempty"`
	Path string `json:"path,omitempty"`
}

// DefaultConfig returns English with no override directory.
func DefaultConfig() Config {
	return Config{Code: defaultCode}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Code != "" {
		c.Code = source.Code
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

// NewCatalog builds the active catalog: the English defaults overlaid with
// the files in Path for Code, so ids a translation omits still resolve. A
// missing language falls back to the defaults with a warning.
func NewCatalog(cfg *Config, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := Default()
	if cfg.Path == "" {
		return base, nil
	}

	code := cfg.Code
	if code == "" {
		code = defaultCode
	}

	overlay, err := LoadDir(cfg.Path, code, logger)
	if errors.Is(err, ErrCodeNotFound) {
		logger.Warn("no catalog for language, using built-in phrases", "code", code, "path", cfg.Path)
		return base, nil
	}
	if err != nil {
		return nil, err
	}

	out := New(code)
	out.Merge(base)
	out.Merge(overlay)
	return out, nil
}
