package locale

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads a single catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locale file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadDir scans dir for *.yaml and *.lang files and merges every file whose
// code matches into one catalog. Files that fail to parse are logged and
// skipped. Returns ErrCodeNotFound when no file matches code.
func LoadDir(dir, code string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read locale dir: %w", err)
	}

	var merged *Catalog
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".lang") {
			continue
		}

		path := filepath.Join(dir, e.Name())
		c, err := LoadFile(path)
		if err != nil {
			logger.Warn("skipping locale file", "path", path, "error", err)
			continue
		}
		if c.Code() != code {
			continue
		}

		if merged == nil {
			merged = New(code)
		}
		merged.Merge(c)
		logger.Debug("loaded locale file", "path", path, "code", code, "phrases", len(c.IDs()))
	}

	if merged == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrCodeNotFound, code, dir)
	}
	return merged, nil
}
