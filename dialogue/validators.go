package dialogue

import (
	"errors"
	"strings"

	"github.com/avi-assistant/avicore/locale"
)

const (
	textErrAny      = "error_validator_any"
	textErrList     = "error_validator_list"
	textErrOptional = "error_validator_optional"
	textErrBool     = "error_validator_bool"
	textErrMapped   = "error_validator_mapped"
	textErrParse    = "error_validator_parse"
)

func errorText(err error, notAccepted string) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return textErrParse
	}
	return notAccepted
}

func containsAny(haystack string, needles []string, fold bool) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if fold {
			n = strings.ToLower(n)
		}
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// AnyValidator accepts every reply and returns it trimmed.
type AnyValidator struct{}

func (AnyValidator) ValidateAndParse(text string) (string, error) {
	return clearText(text), nil
}

func (AnyValidator) ClearText(text string) string { return clearText(text) }
func (AnyValidator) ErrorText(err error) string   { return errorText(err, textErrAny) }
func (AnyValidator) sealed()                      {}

// ListOrNoneValidator accepts a reply that mentions one of Allowed, or
// mentions a NoneText keyword (yielding nil). Matching is substring
// containment, case-folded unless CaseSensitive. The none check runs first.
type ListOrNoneValidator struct {
	Allowed       []string
	NoneText      []string
	CaseSensitive bool
}

// NewListOrNoneValidator takes the none keywords from the catalog's "none"
// entry.
func NewListOrNoneValidator(c *locale.Catalog, allowed ...string) ListOrNoneValidator {
	return ListOrNoneValidator{Allowed: allowed, NoneText: c.List("none")}
}

func (v ListOrNoneValidator) ValidateAndParse(text string) (*string, error) {
	cleaned := clearText(text)
	compare := cleaned
	if !v.CaseSensitive {
		compare = strings.ToLower(cleaned)
	}

	if containsAny(compare, v.NoneText, !v.CaseSensitive) {
		return nil, nil
	}
	if containsAny(compare, v.Allowed, !v.CaseSensitive) {
		return &cleaned, nil
	}
	return nil, ErrNotAccepted
}

func (ListOrNoneValidator) ClearText(text string) string { return clearText(text) }
func (ListOrNoneValidator) ErrorText(err error) string   { return errorText(err, textErrList) }
func (ListOrNoneValidator) sealed()                      {}

// OptionalValidator never fails: a reply mentioning a NoneText keyword
// (case-insensitive) yields nil, anything else yields the trimmed reply.
type OptionalValidator struct {
	NoneText []string
}

// NewOptionalValidator takes the none keywords from the catalog.
func NewOptionalValidator(c *locale.Catalog) OptionalValidator {
	return OptionalValidator{NoneText: c.List("none")}
}

func (v OptionalValidator) ValidateAndParse(text string) (*string, error) {
	cleaned := clearText(text)
	if containsAny(strings.ToLower(cleaned), v.NoneText, true) {
		return nil, nil
	}
	return &cleaned, nil
}

func (OptionalValidator) ClearText(text string) string { return clearText(text) }
func (OptionalValidator) ErrorText(err error) string   { return errorText(err, textErrOptional) }
func (OptionalValidator) sealed()                      {}

// BoolValidator maps yes/always keywords to true and no/never keywords to
// false, case-insensitively. With HardSearch the whole reply must equal a
// keyword; otherwise any keyword contained in the reply matches. When a
// reply contains keywords of both polarities the result is whichever is
// checked first; callers must not depend on it.
type BoolValidator struct {
	Yes        []string
	No         []string
	Always     []string
	Never      []string
	HardSearch bool
}

// NewBoolValidator takes its keywords from the catalog's "yes", "no",
// "always" and "never" entries.
func NewBoolValidator(c *locale.Catalog, hardSearch bool) BoolValidator {
	return BoolValidator{
		Yes:        c.List("yes"),
		No:         c.List("no"),
		Always:     c.List("always"),
		Never:      c.List("never"),
		HardSearch: hardSearch,
	}
}

func (v BoolValidator) ValidateAndParse(text string) (bool, error) {
	cleaned := strings.ToLower(clearText(text))

	groups := []struct {
		words []string
		value bool
	}{
		{v.Yes, true},
		{v.Always, true},
		{v.No, false},
		{v.Never, false},
	}

	for _, g := range groups {
		for _, w := range g.words {
			w = strings.ToLower(w)
			if w == "" {
				continue
			}
			if v.HardSearch && cleaned == w {
				return g.value, nil
			}
			if !v.HardSearch && strings.Contains(cleaned, w) {
				return g.value, nil
			}
		}
	}
	return false, ErrNotAccepted
}

func (BoolValidator) ClearText(text string) string { return clearText(text) }
func (BoolValidator) ErrorText(err error) string   { return errorText(err, textErrBool) }
func (BoolValidator) sealed()                      {}

// Mapping pairs a keyword with the value it selects.
type Mapping[T any] struct {
	Key   string `json:"key"`
	Value T      `json:"value"`
}

// MappedValidator selects a value by keyword, case-insensitively. Keys are
// tried in order; with hard search the whole reply must equal a key,
// otherwise the reply need only contain it. On a miss the default is
// returned if one was set.
type MappedValidator[T any] struct {
	mappings   []Mapping[T]
	def        *T
	hardSearch bool
}

// NewMappedValidator creates a validator over the given mappings.
func NewMappedValidator[T any](mappings ...Mapping[T]) MappedValidator[T] {
	return MappedValidator[T]{mappings: mappings}
}

// WithDefault returns a copy that yields def instead of ErrNotAccepted.
func (v MappedValidator[T]) WithDefault(def T) MappedValidator[T] {
	v.def = &def
	return v
}

// HardSearch returns a copy with exact matching enabled or disabled.
func (v MappedValidator[T]) HardSearch(enabled bool) MappedValidator[T] {
	v.hardSearch = enabled
	return v
}

func (v MappedValidator[T]) ValidateAndParse(text string) (T, error) {
	cleaned := strings.ToLower(clearText(text))

	for _, m := range v.mappings {
		key := strings.ToLower(m.Key)
		if v.hardSearch && cleaned == key {
			return m.Value, nil
		}
		if !v.hardSearch && key != "" && strings.Contains(cleaned, key) {
			return m.Value, nil
		}
	}

	if v.def != nil {
		return *v.def, nil
	}
	var zero T
	return zero, ErrNotAccepted
}

func (MappedValidator[T]) ClearText(text string) string { return clearText(text) }
func (MappedValidator[T]) ErrorText(err error) string   { return errorText(err, textErrMapped) }
func (MappedValidator[T]) sealed()                      {}
