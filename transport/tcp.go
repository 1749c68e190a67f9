package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DialTCP connects to an RTU-over-TCP bridge, which forwards raw RTU
// frames between a TCP socket and a serial line. As with OpenSerial, a
// positive charSpacing returns a CharSpacedTransport.
func DialTCP(ctx context.Context, address string, timeout, charSpacing time.Duration, opts ...Option) (Transport, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrIO, address, err)
	}

	if charSpacing > 0 {
		return NewCharSpacedTransport(conn, charSpacing, opts...), nil
	}

	return NewStreamTransport(conn, opts...), nil
}
