package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/avi-assistant/avicore/memory"
)

func newSQLiteStore(t *testing.T) memory.Persister {
	t.Helper()
	store, err := memory.NewSQLiteStore(filepath.Join(t.TempDir(), "db", "context.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveLoadOverwrite(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, memory.Skill("music"), "volume", memory.Value{Value: json.RawMessage("3"), CreatedAt: 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, memory.Skill("music"), "volume", memory.Value{Value: json.RawMessage("7"), CreatedAt: 2, ExpiresAt: int64p(9)}); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}

	got, err := store.Load(ctx, memory.Skill("music"), "volume")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got.Value) != "7" || got.CreatedAt != 2 || got.ExpiresAt == nil || *got.ExpiresAt != 9 {
		t.Errorf("Load() = %+v, want overwritten row", got)
	}

	if _, err := store.Load(ctx, memory.Global(), "volume"); !errors.Is(err, memory.ErrKeyNotFound) {
		t.Errorf("Load() other scope error = %v, want ErrKeyNotFound", err)
	}
}

func TestSQLiteStore_DeleteAndSweep(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	store.Save(ctx, memory.Global(), "a", memory.Value{Value: json.RawMessage("1"), ExpiresAt: int64p(50)})
	store.Save(ctx, memory.Global(), "b", memory.Value{Value: json.RawMessage("2"), ExpiresAt: int64p(500)})
	store.Save(ctx, memory.Global(), "c", memory.Value{Value: json.RawMessage("3")})

	n, err := store.Sweep(ctx, 100)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep() removed %d, want 1", n)
	}

	if err := store.Delete(ctx, memory.Global(), "b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, memory.Global(), "b"); !errors.Is(err, memory.ErrKeyNotFound) {
		t.Errorf("Load() after delete error = %v, want ErrKeyNotFound", err)
	}
	if _, err := store.Load(ctx, memory.Global(), "c"); err != nil {
		t.Errorf("Load(c) error = %v", err)
	}
}

func TestSQLiteStore_BacksContextStore(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := memory.NewContextStore(newSQLiteStore(t), memory.WithClock(clock.Now))

	s.Set(ctx, memory.Global(), "k", "v", ttl(time.Minute), true)
	s.DropMemory()

	if got, ok := s.Get(ctx, memory.Global(), "k"); !ok || string(got) != `"v"` {
		t.Fatalf("Get() = %s, %v; want \"v\", true", got, ok)
	}

	s.DropMemory()
	clock.Advance(2 * time.Minute)
	if s.Has(ctx, memory.Global(), "k") {
		t.Error("expired row should read as absent")
	}
}
