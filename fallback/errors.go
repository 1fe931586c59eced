package fallback

import "errors"

// ErrUnknownKind is returned when parsing a name that is not a Kind.
var ErrUnknownKind = errors.New("unknown fallback kind")
