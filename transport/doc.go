// Package transport moves raw bytes between a Modbus RTU engine and a
// serial line or serial-like link.
//
// A [Transport] owns the read loop: every chunk read from the link is pushed
// to the registered [DataConsumer]. Writes are blocking and all-or-error.
//
// [StreamTransport] works over any io.ReadWriteCloser, such as a serial port
// opened with [OpenSerial] or a TCP connection to an RTU-over-TCP bridge
// opened with [DialTCP]. [CharSpacedTransport] additionally enforces a
// minimum delay between the start of consecutive byte writes, for bridges
// that drop bytes written faster than their internal buffer drains.
package transport
