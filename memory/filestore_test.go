package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/avi-assistant/avicore/memory"
)

func int64p(v int64) *int64 {
	return &v
}

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestFileStore_Layout(t *testing.T) {
	root := t.TempDir()
	store := memory.NewFileStore(root)

	v := memory.Value{Value: json.RawMessage(`"Lisbon"`), CreatedAt: 100}
	if err := store.Save(context.Background(), memory.Skill("weather"), "city", v); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "skill_weather", "city.json"))
	if err != nil {
		t.Fatalf("expected file at <root>/skill_weather/city.json: %v", err)
	}

	want := `{"value":"Lisbon","created_at":100,"expires_at":null}`
	if string(data) != want {
		t.Errorf("file body = %s, want %s", data, want)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())
	ctx := context.Background()

	v := memory.Value{Value: json.RawMessage(`{"a":1}`), CreatedAt: 10, ExpiresAt: int64p(20)}
	if err := store.Save(ctx, memory.Global(), "k", v); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, memory.Global(), "k")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got.Value) != `{"a":1}` || got.CreatedAt != 10 || got.ExpiresAt == nil || *got.ExpiresAt != 20 {
		t.Errorf("Load() = %+v, want value {\"a\":1} created 10 expires 20", got)
	}
}

func TestFileStore_Load_Missing(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())

	_, err := store.Load(context.Background(), memory.Global(), "missing")
	if !errors.Is(err, memory.ErrKeyNotFound) {
		t.Errorf("Load() error = %v, want ErrKeyNotFound", err)
	}
}

func TestFileStore_Load_Corrupt(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "global/bad.json", "{not json")
	store := memory.NewFileStore(root)

	_, err := store.Load(context.Background(), memory.Global(), "bad")
	if !errors.Is(err, memory.ErrLoadFailed) {
		t.Errorf("Load() error = %v, want ErrLoadFailed", err)
	}
}

func TestFileStore_InvalidKey(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := store.Save(ctx, memory.Global(), key, memory.Value{Value: json.RawMessage("1")}); !errors.Is(err, memory.ErrInvalidKey) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestFileStore_InvalidScope(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "ctx", "root")
	store := memory.NewFileStore(root)
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../../../escaped", `a\b`} {
		scope := memory.Skill(name)
		if err := store.Save(ctx, scope, "k", memory.Value{Value: json.RawMessage("1")}); !errors.Is(err, memory.ErrInvalidKey) {
			t.Errorf("Save(skill %q) error = %v, want ErrInvalidKey", name, err)
		}
		if _, err := store.Load(ctx, scope, "k"); !errors.Is(err, memory.ErrInvalidKey) {
			t.Errorf("Load(skill %q) error = %v, want ErrInvalidKey", name, err)
		}
		if err := store.Delete(ctx, scope, "k"); !errors.Is(err, memory.ErrInvalidKey) {
			t.Errorf("Delete(skill %q) error = %v, want ErrInvalidKey", name, err)
		}
	}

	if _, err := os.Stat(filepath.Join(base, "ctx", "escaped", "k.json")); !os.IsNotExist(err) {
		t.Error("no file should be written outside the root")
	}
}

func TestFileStore_Delete(t *testing.T) {
	root := t.TempDir()
	store := memory.NewFileStore(root)
	ctx := context.Background()

	if err := store.Delete(ctx, memory.Global(), "missing"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}

	writeTestFile(t, root, "global/k.json", `{"value":1,"created_at":0,"expires_at":null}`)
	if err := store.Delete(ctx, memory.Global(), "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "global", "k.json")); !os.IsNotExist(err) {
		t.Error("file should be deleted")
	}
}

func TestFileStore_Sweep(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "global/old.json", `{"value":1,"created_at":0,"expires_at":50}`)
	writeTestFile(t, root, "global/fresh.json", `{"value":2,"created_at":0,"expires_at":500}`)
	writeTestFile(t, root, "skill_s/forever.json", `{"value":3,"created_at":0,"expires_at":null}`)
	writeTestFile(t, root, "skill_s/edge.json", `{"value":4,"created_at":0,"expires_at":100}`)
	writeTestFile(t, root, "skill_s/garbage.json", `nope`)
	writeTestFile(t, root, "skill_s/notes.txt", `ignored`)

	n, err := memory.NewFileStore(root).Sweep(context.Background(), 100)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Sweep() removed %d, want 2", n)
	}

	for rel, wantExists := range map[string]bool{
		"global/old.json":      false,
		"global/fresh.json":    true,
		"skill_s/forever.json": true,
		"skill_s/edge.json":    false,
		"skill_s/garbage.json": true,
		"skill_s/notes.txt":    true,
	} {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if exists := err == nil; exists != wantExists {
			t.Errorf("%s exists = %v, want %v", rel, exists, wantExists)
		}
	}
}

func TestFileStore_Sweep_MissingRoot(t *testing.T) {
	store := memory.NewFileStore(filepath.Join(t.TempDir(), "nonexistent"))

	n, err := store.Sweep(context.Background(), 0)
	if err != nil || n != 0 {
		t.Errorf("Sweep() = %d, %v; want 0, nil", n, err)
	}
}
