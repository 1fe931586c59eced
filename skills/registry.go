// Package skills discovers skills on disk and keeps the registry the router
// resolves intents against. A skill is a directory under the skills root;
// its directory name is the id used in "<skill>@<intent>" intent names.
package skills

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/avi-assistant/avicore/locale"
)

// Status is a skill's load state.
type Status int

const (
	StatusReady    Status = iota // Loaded and routable.
	StatusDisabled               // Manifest sets disabled.
	StatusBad                    // Manifest could not be read.
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusDisabled:
		return "disabled"
	case StatusBad:
		return "bad"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Skill is one registry entry.
type Skill struct {
	ID       string
	Path     string
	Manifest Manifest
	Status   Status
	Err      error           // Load error when Status is StatusBad.
	Catalog  *locale.Catalog // Phrases from <path>/responses, if any.
}

// Registry maps skill ids to skills. It is built once at startup and is
// safe for concurrent reads and writes.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]Skill
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

func validID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if strings.Contains(id, "@") {
		return fmt.Errorf("%w: %q contains '@'", ErrManifestInvalid, id)
	}
	return nil
}

// Register adds s. Returns ErrAlreadyExists if the id is taken; use Replace
// to update an existing skill.
func (r *Registry) Register(s Skill) error {
	if err := validID(s.ID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[s.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, s.ID)
	}
	r.skills[s.ID] = s
	return nil
}

// Replace updates an existing skill.
func (r *Registry) Replace(s Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[s.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrSkillNotFound, s.ID)
	}
	r.skills[s.ID] = s
	return nil
}

// Get returns the skill registered under id.
func (r *Registry) Get(id string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[id]
	return s, ok
}

// List returns all skills sorted by id.
func (r *Registry) List() []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Skill, 0, len(r.skills))
	for _, s := range r.skills {
		list = append(list, s)
	}
	slices.SortFunc(list, func(a, b Skill) int { return strings.Compare(a.ID, b.ID) })
	return list
}

// Len returns the number of registered skills.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}
