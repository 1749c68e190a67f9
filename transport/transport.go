package transport

import (
	"context"
	"errors"
)

var (
	// ErrIO indicates a failed read or write on the underlying link.
	ErrIO = errors.New("transport: i/o error")

	// ErrTransportClosed indicates an operation on a closed transport.
	ErrTransportClosed = errors.New("transport: closed")
)

// DataConsumer receives the bytes read by a Transport.
//
// Data and HandleIOError are called from the transport's read loop, one at
// a time. The slice passed to Data is only valid during the call.
// Implementations must not call Close on the transport from these methods.
type DataConsumer interface {
	Data(b []byte)
	HandleIOError(err error)
}

// Transport is a byte-level link with push-style reads.
type Transport interface {
	// Start registers consumer, replacing any previous one, and starts the
	// read loop if it is not running yet.
	Start(consumer DataConsumer) error
	// RemoveConsumer detaches the current consumer. Bytes read while no
	// consumer is registered are dropped.
	RemoveConsumer()
	// Write blocks until every byte of data has been accepted by the link.
	// Errors wrap ErrIO or ErrTransportClosed.
	Write(ctx context.Context, data []byte) error
	// Close stops the read loop and closes the link.
	Close() error
}
