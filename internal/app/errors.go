package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoScoreStore  = errors.New("no score store configured")
	ErrNoRecordStore = errors.New("no record store configured")
	ErrNoValidator   = errors.New("no replay validator configured")
	ErrNotStarted    = errors.New("service not started")
	ErrBadSubmission = errors.New("malformed run submission")
	ErrUnknownPeriod = errors.New("unknown period id")

	// ErrStoreUnavailable marks a soft failure: the submission was not
	// judged, the run id has been released for retry, and the client
	// should resubmit.
	ErrStoreUnavailable = errors.New("score store unavailable, retry submission")
)
