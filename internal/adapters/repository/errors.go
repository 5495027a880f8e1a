package repository

import "errors"

// Sentinel kinds for ranked score store errors.
var (
	ErrNoEntry      = errors.New("no entry for user in period")
	ErrInvalidRange = errors.New("invalid rank range")
	ErrInvalidScore = errors.New("score must be non-negative")
	ErrUnavailable  = errors.New("score store unavailable")
)
