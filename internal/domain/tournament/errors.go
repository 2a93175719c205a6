package tournament

import (
	"errors"
	"fmt"
)

// Sentinel kinds for configuration validation. Every specific error wraps
// ErrValidation so callers can branch on the family with errors.Is.
var (
	ErrValidation             = errors.New("invalid tournament configuration")
	ErrInvalidTargetCount     = fmt.Errorf("%w: target count must be between %d and %d", ErrValidation, MinTargets, MaxTargets)
	ErrInvalidShotsPerTarget  = fmt.Errorf("%w: shots per target must be between %d and %d", ErrValidation, MinShotsPerTarget, MaxShotsPerTarget)
	ErrNoParticipantsSelected = fmt.Errorf("%w: no participants selected", ErrValidation)
)
