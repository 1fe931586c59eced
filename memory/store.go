// Package memory provides the scoped, TTL-aware context store used to carry
// conversation state across turns. Values live in an in-memory table and may
// additionally be persisted through a pluggable Persister so they survive a
// restart.
package memory

import "context"

// Persister is the durable tier behind a ContextStore. Implementations are
// stateless with respect to caching: every call performs I/O.
type Persister interface {
	// Load returns the persisted value for (scope, key). Returns
	// ErrKeyNotFound when nothing is stored.
	Load(ctx context.Context, scope Scope, key string) (Value, error)
	// Save creates or overwrites the persisted value.
	Save(ctx context.Context, scope Scope, key string, value Value) error
	// Delete removes the persisted value. Missing keys are ignored.
	Delete(ctx context.Context, scope Scope, key string) error
	// Sweep deletes every persisted value expired at the given unix second
	// and returns how many were removed.
	Sweep(ctx context.Context, now int64) (int, error)
	// Close releases backend resources.
	Close() error
}
