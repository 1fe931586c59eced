package locale

import "errors"

// Sentinel errors for catalog loading.
var (
	ErrParseFailed  = errors.New("locale file parse failed")
	ErrMissingCode  = errors.New("locale file has no code")
	ErrCodeNotFound = errors.New("no locale file for language code")
)
