package services

import "errors"

var (
	// ErrServiceUnavailable means no inference model is loaded.
	ErrServiceUnavailable = errors.New("no prediction model loaded")
	// ErrInvalidModel means a requested model cannot be resolved at all.
	ErrInvalidModel = errors.New("requested model is not available")
	ErrNotFound     = errors.New("prediction not found")
	// ErrNoRecords is returned by exports over an empty history.
	ErrNoRecords = errors.New("no predictions recorded")
	// ErrInvalidOutcome rejects a NaN or infinite actual delay.
	ErrInvalidOutcome = errors.New("actual delay must be a finite number")
)
