package dialogue

import (
	"errors"
	"fmt"
)

// ErrNotAccepted is returned by a validator when the reply matches none of
// its accepted forms.
var ErrNotAccepted = errors.New("reply not accepted")

// ErrUnknownValidator is returned when a ValidatorConfig names no validator.
var ErrUnknownValidator = errors.New("unknown validator kind")

// ParseError is returned when a reply was understood but could not be
// converted to the validator's output type.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("reply parse error: %s", e.Reason)
}
