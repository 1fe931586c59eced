// Package dialogue implements the pending-reply exchange: a skill asks the
// user a question, and the next utterances are checked by a Validator until
// one is accepted, the retry budget runs out, or the question goes stale.
package dialogue

import (
	"fmt"
	"strings"
)

// Validator parses a user's reply into T. The set of implementations is
// closed: AnyValidator, ListOrNoneValidator, OptionalValidator,
// BoolValidator and MappedValidator.
type Validator[T any] interface {
	// ValidateAndParse returns the parsed reply, ErrNotAccepted, or a
	// *ParseError.
	ValidateAndParse(text string) (T, error)
	// ClearText normalizes raw input before validation.
	ClearText(text string) string
	// ErrorText returns the catalog id (or literal text) spoken when a reply
	// is rejected with err.
	ErrorText(err error) string

	sealed()
}

// IsAccepted reports whether v accepts text.
func IsAccepted[T any](v Validator[T], text string) bool {
	_, err := v.ValidateAndParse(text)
	return err == nil
}

// ErasedValidator hides a validator's output type so one pending-reply slot
// can hold any of them. Output is rendered to its display form.
type ErasedValidator interface {
	ValidateErased(text string) (string, error)
	ClearText(text string) string
	ErrorText(err error) string
}

// Erase wraps v as an ErasedValidator.
func Erase[T any](v Validator[T]) ErasedValidator {
	return erased[T]{v: v}
}

type erased[T any] struct {
	v Validator[T]
}

func (e erased[T]) ValidateErased(text string) (string, error) {
	out, err := e.v.ValidateAndParse(text)
	if err != nil {
		return "", err
	}
	return render(out), nil
}

func (e erased[T]) ClearText(text string) string {
	return e.v.ClearText(text)
}

func (e erased[T]) ErrorText(err error) string {
	return e.v.ErrorText(err)
}

// NoneOutput is the rendered form of an empty optional reply.
const NoneOutput = "<none>"

func render(v any) string {
	switch o := v.(type) {
	case *string:
		if o == nil {
			return NoneOutput
		}
		return *o
	case string:
		return o
	default:
		return fmt.Sprint(o)
	}
}

func clearText(text string) string {
	return strings.TrimSpace(text)
}
