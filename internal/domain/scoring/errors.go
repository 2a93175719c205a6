package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrOutOfRangeAddress marks an attempt to address a participant, target
	// or shot that does not exist on the active sheet. It is a caller bug.
	ErrOutOfRangeAddress = errors.New("score address out of range")
	// ErrInvalidPhase is returned when an operation is not allowed in the
	// current lifecycle phase.
	ErrInvalidPhase = errors.New("operation not allowed in current phase")
	// ErrConfigFrozen is returned when the shape is changed after scoring started.
	ErrConfigFrozen = errors.New("tournament configuration is frozen while scoring")
)
