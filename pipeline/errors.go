package pipeline

import "errors"

// Sentinel error kinds surfaced to callers unchanged, per spec.md §7. Check
// with errors.Is; wrapped with fmt.Errorf("...: %w", ...) for context.
var (
	ErrNotFound             = errors.New("pipeline: not found")
	ErrWrongStageKind       = errors.New("pipeline: wrong stage kind")
	ErrWrongPayload         = errors.New("pipeline: wrong payload kind")
	ErrDuplicateStage       = errors.New("pipeline: duplicate stage name")
	ErrDuplicateID          = errors.New("pipeline: duplicate payload id")
	ErrAlreadySet           = errors.New("pipeline: already set")
	ErrEmptyIDs             = errors.New("pipeline: movement requires at least one id")
	ErrMixedStages          = errors.New("pipeline: ids resolve to different source stages")
	ErrForwardOnlyViolation = errors.New("pipeline: destination stage is not after the source stage")
)
