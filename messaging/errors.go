package messaging

import "errors"

var (
	// ErrDuplicateKey indicates a request whose correlation key is already
	// in use by another in-flight request.
	ErrDuplicateKey = errors.New("messaging: duplicate correlation key")

	// ErrNotEntered indicates a wait on a key that was never entered or
	// has already left the waiting room.
	ErrNotEntered = errors.New("messaging: key not in waiting room")

	// ErrWaitTimeout indicates a single wait that elapsed without a response.
	ErrWaitTimeout = errors.New("messaging: wait timeout")

	// ErrRequestTimeout indicates a request that got no response after all retries.
	ErrRequestTimeout = errors.New("messaging: request timeout")

	// ErrControlClosed indicates an operation on a closed MessageControl.
	ErrControlClosed = errors.New("messaging: message control closed")

	// ErrNotStarted indicates a send before Start.
	ErrNotStarted = errors.New("messaging: message control not started")
)
