package model

import "errors"

// Sentinel kinds for model encoding errors.
var (
	// ErrSerialization marks a snapshot or history record that cannot be decoded.
	ErrSerialization = errors.New("corrupt serialized state")
)
