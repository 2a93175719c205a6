package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrEmptyName     = errors.New("participant name is empty")
	ErrNameTooLong   = errors.New("participant name is too long")
	ErrDuplicateName = errors.New("participant name already exists")
	ErrNotFound      = errors.New("participant not found")
)
