package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNotStarted is returned by operations called before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrNothingToExport means no tournament has been finished or viewed.
	ErrNothingToExport = errors.New("no finished tournament to export")
)
