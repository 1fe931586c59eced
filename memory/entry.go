package memory

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// ScopeKind distinguishes the global namespace from per-skill namespaces.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeSkill
)

// Scope partitions context keys. Two scopes are equal when their kinds match
// and, for skill scopes, their names match. Scope is comparable and is used
// directly as a map key.
type Scope struct {
	Kind ScopeKind
	Name string
}

// Global returns the process-wide scope.
func Global() Scope {
	return Scope{Kind: ScopeGlobal}
}

// Skill returns the scope owned by the named skill.
func Skill(name string) Scope {
	return Scope{Kind: ScopeSkill, Name: name}
}

// Key returns the on-disk directory name for the scope: "global" or
// "skill_<name>".
func (s Scope) Key() string {
	if s.Kind == ScopeSkill {
		return "skill_" + s.Name
	}
	return "global"
}

func (s Scope) String() string {
	return s.Key()
}

// Valid reports whether the scope maps to a single directory under the
// persistence root.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeGlobal:
		return true
	case ScopeSkill:
		return validName(s.Name)
	}
	return false
}

// ParseScope is the inverse of Scope.Key. Skill names that are not a single
// path segment are rejected.
func ParseScope(key string) (Scope, bool) {
	if key == "global" {
		return Global(), true
	}
	if name, ok := strings.CutPrefix(key, "skill_"); ok && validName(name) {
		return Skill(name), true
	}
	return Scope{}, false
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// Value is a stored context value. Timestamps are unix seconds. A nil
// ExpiresAt never expires.
type Value struct {
	Value     json.RawMessage `json:"value"`
	CreatedAt int64           `json:"created_at"`
	ExpiresAt *int64          `json:"expires_at"`
}

// NewValue stamps raw with the creation time and, when ttl is non-nil, an
// expiry of now+ttl truncated to whole seconds.
func NewValue(raw json.RawMessage, ttl *time.Duration, now time.Time) Value {
	created := now.Unix()
	v := Value{Value: slices.Clone(raw), CreatedAt: created}
	if ttl != nil {
		exp := created + int64(*ttl/time.Second)
		v.ExpiresAt = &exp
	}
	return v
}

// Expired reports whether the value is expired at the given unix second.
func (v Value) Expired(now int64) bool {
	return v.ExpiresAt != nil && now >= *v.ExpiresAt
}
