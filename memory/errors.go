package memory

import "errors"

// Sentinel errors for context persistence.
var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrLoadFailed     = errors.New("load failed")
	ErrSaveFailed     = errors.New("save failed")
	ErrInvalidKey     = errors.New("invalid context key")
	ErrInvalidTTL     = errors.New("invalid ttl")
	ErrUnknownBackend = errors.New("unknown persistence backend")
)
