package router

import "errors"

// Reasons recorded in Outcome.Err when routing falls back.
var (
	ErrNotRecognized = errors.New("intent not recognized")
	ErrSkillDisabled = errors.New("skill disabled")
	ErrSkillBad      = errors.New("skill failed to load")
	ErrNoExecutor    = errors.New("no skill executor")
)
