package transport

import (
	"context"
	"fmt"
	"io"
	"time"
)

// CharSpacedTransport is a StreamTransport that writes one byte at a time,
// starting each byte no sooner than spacing after the previous one started.
type CharSpacedTransport struct {
	*StreamTransport
	spacing time.Duration
}

var _ Transport = (*CharSpacedTransport)(nil)

// NewCharSpacedTransport creates a CharSpacedTransport over rw.
func NewCharSpacedTransport(rw io.ReadWriteCloser, spacing time.Duration, opts ...Option) *CharSpacedTransport {
	return &CharSpacedTransport{
		StreamTransport: NewStreamTransport(rw, opts...),
		spacing:         spacing,
	}
}

// Spacing returns the minimum delay between the start of consecutive bytes.
func (t *CharSpacedTransport) Spacing() time.Duration {
	return t.spacing
}

// Write implements Transport.
//
// An interrupted delay, by ctx or by Close, aborts the write with ErrIO.
// Bytes already written stay on the line.
func (t *CharSpacedTransport) Write(ctx context.Context, data []byte) error {
	if !t.state.IsOpened() {
		return ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.closeCtx, cancel)
	defer stop()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.setWriteDeadline(ctx)

	var prevStart time.Time
	for i := range data {
		if i > 0 {
			wait := prevStart.Add(t.spacing).Sub(t.clock.Now())
			if wait > 0 {
				if err := t.clock.Sleep(ctx, wait); err != nil {
					t.metrics.WriteErrCount.Add(1)
					return fmt.Errorf("%w: interrupted after %d of %d bytes: %w", ErrIO, i, len(data), err)
				}
			}
		}

		prevStart = t.clock.Now()
		if err := t.writeAll(data[i : i+1]); err != nil {
			return t.writeError(err)
		}
	}

	return nil
}
