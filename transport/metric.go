package transport

import "sync/atomic"

// Metrics contains atomic counters for a transport.
// Metrics can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// BytesRead indicates the number of bytes read from the link.
	BytesRead atomic.Uint64
	// BytesWritten indicates the number of bytes written to the link.
	BytesWritten atomic.Uint64
	// ReadErrCount indicates the number of read errors reported to the consumer.
	ReadErrCount atomic.Uint64
	// WriteErrCount indicates the number of failed writes.
	WriteErrCount atomic.Uint64
}
