package kernel

import "errors"

var (
	// ErrRecognize wraps failures of the external intent recognizer.
	ErrRecognize = errors.New("intent recognition failed")
	// ErrNothingToRepeat is reported when a repeat or go-again intent
	// arrives before any intent was routed.
	ErrNothingToRepeat = errors.New("nothing to repeat")
	// ErrRepeatNotAllowed is reported when the last skill's manifest
	// forbids the repeat.
	ErrRepeatNotAllowed = errors.New("skill does not allow repeating")
)
