package dialogue

import (
	"fmt"

	"github.com/avi-assistant/avicore/locale"
)

// Validator kinds accepted by ValidatorConfig.
const (
	KindAny        = "any"
	KindBool       = "bool"
	KindListOrNone = "list_or_none"
	KindOptional   = "optional"
	KindMapped     = "mapped"
)

// ValidatorConfig selects one validator from the closed set. Fields not
// used by Kind are ignored. Mapped validators map keywords to strings.
type ValidatorConfig struct {
	Kind     string            `json:"kind,omitempty"`
	Allowed  []string          `json:"allowed,omitempty"`
	Hard     bool              `json:"hard,omitempty"`
	Mappings []Mapping[string] `json:"mappings,omitempty"`
	Default  *string           `json:"default,omitempty"`
}

// Build returns the erased validator, taking keyword lists from cat. An
// empty Kind is "any".
func (v ValidatorConfig) Build(cat *locale.Catalog) (ErasedValidator, error) {
	if cat == nil {
		cat = locale.Default()
	}
	switch v.Kind {
	case "", KindAny:
		return Erase[string](AnyValidator{}), nil
	case KindBool:
		return Erase[bool](NewBoolValidator(cat, v.Hard)), nil
	case KindListOrNone:
		if len(v.Allowed) == 0 {
			return nil, fmt.Errorf("%w: %s needs allowed values", ErrUnknownValidator, v.Kind)
		}
		return Erase[*string](NewListOrNoneValidator(cat, v.Allowed...)), nil
	case KindOptional:
		return Erase[*string](NewOptionalValidator(cat)), nil
	case KindMapped:
		if len(v.Mappings) == 0 {
			return nil, fmt.Errorf("%w: %s needs mappings", ErrUnknownValidator, v.Kind)
		}
		m := NewMappedValidator(v.Mappings...).HardSearch(v.Hard)
		if v.Default != nil {
			m = m.WithDefault(*v.Default)
		}
		return Erase[string](m), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownValidator, v.Kind)
}

// ReplyConfig is the serializable form of a Request, used by skills that
// run outside the process and by remote callers.
type ReplyConfig struct {
	Skill        string          `json:"skill"`
	SkillRequest string          `json:"skill_request,omitempty"`
	Handler      string          `json:"handler,omitempty"`
	Validator    ValidatorConfig `json:"validator"`
}

// Request builds the Request, resolving the validator against cat.
func (r ReplyConfig) Request(cat *locale.Catalog) (Request, error) {
	v, err := r.Validator.Build(cat)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Skill:        r.Skill,
		SkillRequest: r.SkillRequest,
		Handler:      r.Handler,
		Validator:    v,
	}, nil
}
