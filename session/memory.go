package session

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

type memorySession struct {
	id       string
	maxTurns int
	turns    []Turn
	mu       sync.RWMutex
}

// NewMemorySession creates a Session backed by an in-memory slice that keeps
// at most maxTurns turns; zero or less keeps everything. The session is
// assigned a unique UUIDv7 identifier.
func NewMemorySession(maxTurns int) Session {
	return &memorySession{
		id:       uuid.Must(uuid.NewV7()).String(),
		maxTurns: maxTurns,
	}
}

func (s *memorySession) ID() string {
	return s.id
}

func (s *memorySession) Add(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	if s.maxTurns > 0 && len(s.turns) > s.maxTurns {
		s.turns = slices.Delete(s.turns, 0, len(s.turns)-s.maxTurns)
	}
}

func (s *memorySession) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.turns)
}

func (s *memorySession) Last(role Role) (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == role {
			return s.turns[i], true
		}
	}
	return Turn{}, false
}

func (s *memorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}
