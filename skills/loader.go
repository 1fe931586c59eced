package skills

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/avi-assistant/avicore/locale"
)

// ResponsesDir holds a skill's phrase catalogs.
const ResponsesDir = "responses"

type loadOptions struct {
	logger      *slog.Logger
	code        string
	concurrency int
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithLoadLogger overrides slog.Default.
func WithLoadLogger(l *slog.Logger) LoadOption {
	return func(o *loadOptions) { o.logger = l }
}

// WithLocale selects which language to load from each skill's responses
// directory.
func WithLocale(code string) LoadOption {
	return func(o *loadOptions) { o.code = code }
}

// WithConcurrency bounds how many skill directories are read at once.
func WithConcurrency(n int) LoadOption {
	return func(o *loadOptions) { o.concurrency = n }
}

// Load scans dir and registers every subdirectory as a skill keyed by its
// directory name. Skills whose manifest says disabled are registered with
// StatusDisabled; unreadable manifests yield StatusBad. A missing dir
// yields an empty registry.
func Load(ctx context.Context, dir string, opts ...LoadOption) (*Registry, error) {
	o := loadOptions{
		logger:      slog.Default(),
		code:        "en",
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&o)
	}

	reg := NewRegistry()

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		o.logger.Warn("skills directory not found", "path", dir)
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read skills dir: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}

	loaded := make([]Skill, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.concurrency, 1))
	for i, path := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			loaded[i] = LoadSkill(path, o.code, o.logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range loaded {
		if err := reg.Register(s); err != nil {
			o.logger.Warn("skipping skill", "path", s.Path, "error", err)
			continue
		}
		o.logger.Info("loaded skill", "id", s.ID, "name", s.Manifest.Name, "status", s.Status.String())
	}
	return reg, nil
}

// LoadSkill reads one skill directory. It never fails; problems are
// recorded in the returned skill's Status and Err.
func LoadSkill(path, code string, logger *slog.Logger) Skill {
	if logger == nil {
		logger = slog.Default()
	}
	s := Skill{ID: filepath.Base(path), Path: path}

	m, _, err := ReadManifest(path)
	if err != nil {
		s.Manifest = DefaultManifest(s.ID)
		s.Status = StatusBad
		s.Err = err
		logger.Warn("bad skill manifest", "skill", s.ID, "error", err)
		return s
	}
	s.Manifest = m
	if m.Disabled {
		s.Status = StatusDisabled
	}

	responses := filepath.Join(path, ResponsesDir)
	if _, err := os.Stat(responses); err == nil {
		cat, err := locale.LoadDir(responses, code, logger)
		if err != nil {
			logger.Debug("no skill phrases for language", "skill", s.ID, "code", code, "error", err)
		} else {
			s.Catalog = cat
		}
	}
	return s
}
