package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	// ErrStoreUnavailable means the backend was never initialized or has
	// been closed. Callers degrade to in-memory operation.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = errors.New("history entry not found")
)
