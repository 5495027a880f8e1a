package state

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrUnavailable = errors.New("record store unavailable")
	ErrCorrupt     = errors.New("corrupt record payload")
)
