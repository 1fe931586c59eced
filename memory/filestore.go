package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type fileStore struct {
	root string
}

// NewFileStore creates a Persister that stores each value as JSON at
// <root>/<scope_key>/<key>.json.
func NewFileStore(root string) Persister {
	return &fileStore{root: root}
}

func (s *fileStore) path(scope Scope, key string) (string, error) {
	if !scope.Valid() {
		return "", fmt.Errorf("%w: scope %q", ErrInvalidKey, scope.Key())
	}
	if !validName(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, scope.Key(), key+".json"), nil
}

func (s *fileStore) Load(_ context.Context, scope Scope, key string) (Value, error) {
	path, err := s.path(scope, key)
	if err != nil {
		return Value{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Value{}, fmt.Errorf("%w: %s/%s", ErrKeyNotFound, scope.Key(), key)
		}
		return Value{}, fmt.Errorf("%w: %s/%s: %v", ErrLoadFailed, scope.Key(), key, err)
	}

	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, fmt.Errorf("%w: %s/%s: %v", ErrLoadFailed, scope.Key(), key, err)
	}
	return v, nil
}

func (s *fileStore) Save(_ context.Context, scope Scope, key string, value Value) error {
	path, err := s.path(scope, key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrSaveFailed, scope.Key(), key, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrSaveFailed, scope.Key(), key, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrSaveFailed, scope.Key(), key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s/%s: %v", ErrSaveFailed, scope.Key(), key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s/%s: %v", ErrSaveFailed, scope.Key(), key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s/%s: %v", ErrSaveFailed, scope.Key(), key, err)
	}
	return nil
}

func (s *fileStore) Delete(_ context.Context, scope Scope, key string) error {
	path, err := s.path(scope, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete failed: %s/%s: %w", scope.Key(), key, err)
	}
	return nil
}

// Sweep walks every scope directory under root and removes value files that
// are expired. Files that cannot be read or parsed are left alone.
func (s *fileStore) Sweep(ctx context.Context, now int64) (int, error) {
	scopes, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	removed := 0
	for _, scopeDir := range scopes {
		if !scopeDir.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		dir := filepath.Join(s.root, scopeDir.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			path := filepath.Join(dir, f.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			var v Value
			if err := json.Unmarshal(data, &v); err != nil {
				continue
			}
			if v.Expired(now) {
				if err := os.Remove(path); err == nil {
					removed++
				}
			}
		}
	}

	return removed, nil
}

func (s *fileStore) Close() error {
	return nil
}
