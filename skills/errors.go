package skills

import "errors"

// Sentinel errors for the skill registry and executors.
var (
	ErrSkillNotFound   = errors.New("skill not found")
	ErrAlreadyExists   = errors.New("skill already registered")
	ErrEmptyID         = errors.New("skill id is empty")
	ErrManifestInvalid = errors.New("skill manifest invalid")
	ErrNoHandler       = errors.New("skill has no handler")
	ErrNoEntry         = errors.New("skill manifest has no entry")
)
