package session_test

import (
	"testing"

	"github.com/avi-assistant/avicore/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := session.DefaultConfig()

	if cfg.MaxTurns != 100 {
		t.Errorf("got MaxTurns %d, want 100", cfg.MaxTurns)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := session.DefaultConfig()

	cfg.Merge(&session.Config{})
	if cfg.MaxTurns != 100 {
		t.Errorf("zero source changed MaxTurns to %d", cfg.MaxTurns)
	}

	cfg.Merge(&session.Config{MaxTurns: -1})
	if cfg.MaxTurns != -1 {
		t.Errorf("got MaxTurns %d, want -1", cfg.MaxTurns)
	}
}

func TestNew_FromConfig(t *testing.T) {
	cfg := session.Config{MaxTurns: 2}

	s, err := session.New(&cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if s == nil {
		t.Fatal("New returned nil session")
	}

	if s.ID() == "" {
		t.Error("session ID is empty")
	}

	for _, text := range []string{"a", "b", "c"} {
		s.Add(session.NewTurn(session.RoleUser, text))
	}
	if got := len(s.Turns()); got != 2 {
		t.Errorf("got %d turns, want 2", got)
	}
}
