package memory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/avi-assistant/avicore/observability"
)

// EventSweep is emitted after every CleanupExpired pass.
const EventSweep observability.EventType = "memory.sweep"

// ContextStore is the two-tier context cache. The in-memory table is
// authoritative when it holds an unexpired value; otherwise the Persister is
// consulted and hits are cached back. Persistence failures are logged and
// treated as misses. All methods are safe for concurrent use.
type ContextStore struct {
	persister Persister
	logger    *slog.Logger
	observer  observability.Observer
	now       func() time.Time

	mu     sync.RWMutex
	values map[Scope]map[string]Value
}

// Option configures a ContextStore.
type Option func(*ContextStore)

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *ContextStore) { s.logger = l }
}

// WithObserver sets the observer notified after each sweep.
func WithObserver(o observability.Observer) Option {
	return func(s *ContextStore) { s.observer = o }
}

// WithClock overrides time.Now. Expiry is evaluated in whole unix seconds.
func WithClock(now func() time.Time) Option {
	return func(s *ContextStore) { s.now = now }
}

// NewContextStore creates a ContextStore. A nil persister keeps all values
// in memory and silently ignores persistent writes.
func NewContextStore(p Persister, opts ...Option) *ContextStore {
	s := &ContextStore{
		persister: p,
		logger:    slog.Default(),
		observer:  observability.NoOpObserver{},
		now:       time.Now,
		values:    make(map[Scope]map[string]Value),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores value under (scope, key). The value is JSON-encoded; a
// json.RawMessage is stored as-is. A nil ttl never expires. When persistent
// is true the value is also written through the Persister.
func (s *ContextStore) Set(ctx context.Context, scope Scope, key string, value any, ttl *time.Duration, persistent bool) {
	raw, err := encode(value)
	if err != nil {
		s.logger.Error("context value not encodable", "scope", scope.Key(), "key", key, "error", err)
		return
	}

	v := NewValue(raw, ttl, s.now())

	s.mu.Lock()
	s.put(scope, key, v)
	s.mu.Unlock()

	if !persistent {
		return
	}
	if s.persister == nil {
		s.logger.Debug("persistence disabled, value kept in memory", "scope", scope.Key(), "key", key)
		return
	}
	if err := s.persister.Save(ctx, scope, key, v); err != nil {
		s.logger.Warn("failed to persist context value", "scope", scope.Key(), "key", key, "error", err)
	}
}

// Get returns the unexpired value for (scope, key). Memory is checked first;
// on a miss the persisted copy is loaded and cached back. An expired
// persisted copy is deleted.
func (s *ContextStore) Get(ctx context.Context, scope Scope, key string) (json.RawMessage, bool) {
	now := s.now().Unix()

	s.mu.RLock()
	v, ok := s.values[scope][key]
	s.mu.RUnlock()
	if ok && !v.Expired(now) {
		return slices.Clone(v.Value), true
	}

	if s.persister == nil {
		return nil, false
	}

	stored, err := s.persister.Load(ctx, scope, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("failed to load persisted context value", "scope", scope.Key(), "key", key, "error", err)
		}
		return nil, false
	}

	if stored.Expired(now) {
		if err := s.persister.Delete(ctx, scope, key); err != nil {
			s.logger.Warn("failed to delete expired context value", "scope", scope.Key(), "key", key, "error", err)
		}
		return nil, false
	}

	s.mu.Lock()
	if cur, ok := s.values[scope][key]; ok && !cur.Expired(now) {
		// A Set landed while the persister was read; it is newer.
		s.mu.Unlock()
		return slices.Clone(cur.Value), true
	}
	s.put(scope, key, stored)
	s.mu.Unlock()

	return slices.Clone(stored.Value), true
}

// GetInto decodes the value for (scope, key) into dst. Returns false on a
// miss or when the stored JSON does not fit dst.
func (s *ContextStore) GetInto(ctx context.Context, scope Scope, key string, dst any) bool {
	raw, ok := s.Get(ctx, scope, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Debug("context value does not match target", "scope", scope.Key(), "key", key, "error", err)
		return false
	}
	return true
}

// Has reports whether Get would return a value.
func (s *ContextStore) Has(ctx context.Context, scope Scope, key string) bool {
	_, ok := s.Get(ctx, scope, key)
	return ok
}

// Remove deletes the persisted copy of (scope, key). The in-memory entry is
// left to expire or be overwritten: Remove means "stop remembering across
// restarts".
func (s *ContextStore) Remove(ctx context.Context, scope Scope, key string) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Delete(ctx, scope, key); err != nil {
		s.logger.Warn("failed to remove persisted context value", "scope", scope.Key(), "key", key, "error", err)
	}
}

// CleanupExpired drops every expired in-memory entry and asks the Persister
// to delete expired persisted values.
func (s *ContextStore) CleanupExpired(ctx context.Context) {
	now := s.now().Unix()

	s.mu.Lock()
	inMemory := 0
	for scope, entries := range s.values {
		for key, v := range entries {
			if v.Expired(now) {
				delete(entries, key)
				inMemory++
			}
		}
		if len(entries) == 0 {
			delete(s.values, scope)
		}
	}
	s.mu.Unlock()

	persisted := 0
	if s.persister != nil {
		n, err := s.persister.Sweep(ctx, now)
		if err != nil {
			s.logger.Warn("persisted context sweep failed", "error", err)
		}
		persisted = n
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventSweep,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "memory.CleanupExpired",
		Data: map[string]any{
			"memory_removed":    inMemory,
			"persisted_removed": persisted,
		},
	})
}

// Sweep runs CleanupExpired every interval until ctx is done. It is meant to
// run on its own goroutine and returns nil on cancellation.
func (s *ContextStore) Sweep(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.CleanupExpired(ctx)
		}
	}
}

// DropMemory clears the in-memory table, leaving persisted values intact.
// The next Get for a persisted key reloads it from the Persister.
func (s *ContextStore) DropMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[Scope]map[string]Value)
}

// Len returns the number of in-memory entries, expired or not.
func (s *ContextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entries := range s.values {
		n += len(entries)
	}
	return n
}

// Close closes the Persister, if any.
func (s *ContextStore) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}

// put stores v; caller must hold the write lock.
func (s *ContextStore) put(scope Scope, key string, v Value) {
	entries, ok := s.values[scope]
	if !ok {
		entries = make(map[string]Value)
		s.values[scope] = entries
	}
	entries[key] = v
}

func encode(value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, errors.New("invalid JSON")
		}
		return v, nil
	default:
		return json.Marshal(value)
	}
}
