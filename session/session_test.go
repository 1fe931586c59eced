package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/avi-assistant/avicore/session"
)

func TestNew(t *testing.T) {
	s := session.NewMemorySession(0)

	if s.ID() == "" {
		t.Error("session ID should not be empty")
	}
	if len(s.Turns()) != 0 {
		t.Errorf("new session should have 0 turns, got %d", len(s.Turns()))
	}
}

func TestSession_ID_Unique(t *testing.T) {
	s1 := session.NewMemorySession(0)
	s2 := session.NewMemorySession(0)

	if s1.ID() == s2.ID() {
		t.Errorf("two sessions should have different IDs, both got %q", s1.ID())
	}
}

func TestSession_ID_Stable(t *testing.T) {
	s := session.NewMemorySession(0)

	if id1, id2 := s.ID(), s.ID(); id1 != id2 {
		t.Errorf("same session returned different IDs: %q and %q", id1, id2)
	}
}

func TestSession_Add_Order(t *testing.T) {
	s := session.NewMemorySession(0)

	want := []session.Turn{
		session.NewTurn(session.RoleUser, "what's the weather"),
		session.NewTurn(session.RoleAssistant, "Which city?"),
		session.NewTurn(session.RoleUser, "Lisbon"),
	}
	for _, turn := range want {
		s.Add(turn)
	}

	got := s.Turns()
	if len(got) != len(want) {
		t.Fatalf("got %d turns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("turn %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSession_MaxTurns(t *testing.T) {
	s := session.NewMemorySession(3)

	for _, text := range []string{"1", "2", "3", "4", "5"} {
		s.Add(session.NewTurn(session.RoleUser, text))
	}

	turns := s.Turns()
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(turns))
	}
	if turns[0].Text != "3" || turns[2].Text != "5" {
		t.Errorf("got %q..%q, want 3..5", turns[0].Text, turns[2].Text)
	}
}

func TestSession_Last(t *testing.T) {
	s := session.NewMemorySession(0)

	if _, ok := s.Last(session.RoleAssistant); ok {
		t.Error("Last on empty session should report false")
	}

	s.Add(session.Turn{Role: session.RoleAssistant, Text: "Hello", Time: time.Unix(1, 0)})
	s.Add(session.Turn{Role: session.RoleUser, Text: "hi", Time: time.Unix(2, 0)})
	s.Add(session.Turn{Role: session.RoleAssistant, Text: "How can I help?", Time: time.Unix(3, 0)})
	s.Add(session.Turn{Role: session.RoleUser, Text: "nothing", Time: time.Unix(4, 0)})

	turn, ok := s.Last(session.RoleAssistant)
	if !ok {
		t.Fatal("Last should find an assistant turn")
	}
	if turn.Text != "How can I help?" {
		t.Errorf("got %q, want %q", turn.Text, "How can I help?")
	}
}

func TestSession_Turns_DefensiveCopy(t *testing.T) {
	s := session.NewMemorySession(0)
	s.Add(session.NewTurn(session.RoleUser, "original"))

	turns := s.Turns()
	turns[0].Text = "modified"

	if s.Turns()[0].Text != "original" {
		t.Error("modifying returned turns affected the session")
	}
}

func TestSession_Clear(t *testing.T) {
	s := session.NewMemorySession(0)
	s.Add(session.NewTurn(session.RoleUser, "a"))
	s.Add(session.NewTurn(session.RoleAssistant, "b"))

	s.Clear()

	if len(s.Turns()) != 0 {
		t.Errorf("after Clear, got %d turns, want 0", len(s.Turns()))
	}

	s.Add(session.NewTurn(session.RoleUser, "after clear"))
	if len(s.Turns()) != 1 {
		t.Errorf("after Clear+Add, got %d turns, want 1", len(s.Turns()))
	}
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := session.NewMemorySession(50)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Add(session.NewTurn(session.RoleUser, "x"))
		}()
		go func() {
			defer wg.Done()
			_ = s.Turns()
			_, _ = s.Last(session.RoleUser)
		}()
	}
	wg.Wait()

	if got := len(s.Turns()); got != 50 {
		t.Errorf("got %d turns, want 50", got)
	}
}
