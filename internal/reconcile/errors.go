package reconcile

import "errors"

var (
	// ErrRemote is returned when the remote service answers with a non-2xx
	// status.
	ErrRemote = errors.New("remote sync request failed")

	// ErrNilDependency is returned by New when a required dependency is nil.
	ErrNilDependency = errors.New("nil dependency")

	// ErrInvalidBaseURL is returned by New for a base URL that is not absolute.
	ErrInvalidBaseURL = errors.New("invalid sync base URL")
)
