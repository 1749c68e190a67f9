package rtu

import "errors"

var (
	// ErrIncomplete indicates that the buffer does not yet hold a full frame.
	// It is the expected state while a frame is still arriving.
	ErrIncomplete = errors.New("rtu: incomplete frame")

	// ErrCRCMismatch indicates that a frame's CRC does not match its content.
	ErrCRCMismatch = errors.New("rtu: crc mismatch")

	// ErrMalformedFrame indicates a frame whose header or length cannot be valid.
	ErrMalformedFrame = errors.New("rtu: malformed frame")

	// ErrUnknownFunction indicates a function code no length resolver knows.
	ErrUnknownFunction = errors.New("rtu: unknown function code")

	// ErrFrameTooLarge indicates a message that does not fit in one RTU frame.
	ErrFrameTooLarge = errors.New("rtu: frame too large")

	// ErrInvalidKind indicates a message with neither request nor response kind.
	ErrInvalidKind = errors.New("rtu: invalid message kind")
)
