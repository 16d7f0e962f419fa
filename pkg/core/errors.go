package core

import "errors"

var (
	// ErrInvariantViolation is returned when a roster operation is attempted
	// out of protocol. It indicates a programming error in the caller and is
	// fatal to the trial that raised it.
	ErrInvariantViolation = errors.New("session invariant violation")

	// ErrCapacityExceeded is wrapped by ErrInvariantViolation when a student is
	// admitted into a full session without evicting first.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrEmptySession is wrapped by ErrInvariantViolation when eviction is
	// requested from a session that holds nobody.
	ErrEmptySession = errors.New("empty session")

	// ErrInvalidCapacity is returned when a session is constructed with a
	// non-positive capacity.
	ErrInvalidCapacity = errors.New("session capacity must be positive")
)
