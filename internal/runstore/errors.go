package runstore

import "errors"

var (
	// ErrRunNotFound is returned when no run has the requested ID
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidRun is returned when a run is missing required fields
	ErrInvalidRun = errors.New("invalid run")
)
