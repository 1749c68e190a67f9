package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-mbrtu/internal/pool"
	"github.com/arloliu/go-mbrtu/internal/task"
	"github.com/arloliu/go-mbrtu/logger"
)

// Option configures a StreamTransport or CharSpacedTransport.
type Option func(*options)

type options struct {
	logger logger.Logger
	clock  Clock
}

// WithLogger sets the logger. The default is the package-level logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used for character spacing.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: logger.GetLogger(), clock: SystemClock{}}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

type consumerHolder struct {
	DataConsumer
}

// StreamTransport is a Transport over an io.ReadWriteCloser.
type StreamTransport struct {
	rw     io.ReadWriteCloser
	logger logger.Logger
	clock  Clock

	state    AtomicOpState
	consumer atomic.Pointer[consumerHolder]
	reading  atomic.Bool
	taskMgr  *task.Manager
	writeMu  sync.Mutex
	metrics  Metrics

	// closeCtx is canceled by Close to interrupt blocked writes.
	closeCtx    context.Context
	closeCancel context.CancelFunc
}

var _ Transport = (*StreamTransport)(nil)

// NewStreamTransport creates an opened StreamTransport over rw. The read
// loop starts with the first call to Start.
func NewStreamTransport(rw io.ReadWriteCloser, opts ...Option) *StreamTransport {
	o := newOptions(opts)

	t := &StreamTransport{
		rw:     rw,
		logger: o.logger,
		clock:  o.clock,
	}
	t.taskMgr = task.NewManager(context.Background(), t.logger)
	t.closeCtx, t.closeCancel = context.WithCancel(context.Background())
	t.state.ToOpening()
	t.state.ToOpened()

	return t
}

// State returns the lifecycle state.
func (t *StreamTransport) State() OpState {
	return t.state.Get()
}

// Metrics returns the transport's counters.
func (t *StreamTransport) Metrics() *Metrics {
	return &t.metrics
}

// Start implements Transport.
func (t *StreamTransport) Start(consumer DataConsumer) error {
	if consumer == nil {
		return errors.New("transport: nil consumer")
	}
	if !t.state.IsOpened() {
		return ErrTransportClosed
	}

	t.consumer.Store(&consumerHolder{consumer})

	if !t.reading.CompareAndSwap(false, true) {
		return nil
	}

	buf := pool.GetReadBuffer()
	err := t.taskMgr.Start("read-loop", func() bool {
		return t.readOnce(*buf)
	}, func() {
		pool.PutReadBuffer(buf)
	})
	if err != nil {
		t.reading.Store(false)
		return err
	}

	return nil
}

// RemoveConsumer implements Transport.
func (t *StreamTransport) RemoveConsumer() {
	t.consumer.Store(nil)
}

// Write implements Transport.
func (t *StreamTransport) Write(ctx context.Context, data []byte) error {
	if !t.state.IsOpened() {
		return ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.setWriteDeadline(ctx)
	if err := t.writeAll(data); err != nil {
		return t.writeError(err)
	}

	return nil
}

// Close implements Transport.
func (t *StreamTransport) Close() error {
	if !t.state.ToClosing() {
		return nil
	}
	defer t.state.ToClosed()

	t.logger.Debug("closing transport")

	t.consumer.Store(nil)
	t.closeCancel()
	t.taskMgr.Stop()
	err := t.rw.Close()
	t.taskMgr.Wait()

	return err
}

func (t *StreamTransport) readOnce(buf []byte) bool {
	n, err := t.rw.Read(buf)
	if n > 0 {
		t.metrics.BytesRead.Add(uint64(n))
		t.logger.Debug("read", "data", logger.Frame(buf[:n]))
		if h := t.consumer.Load(); h != nil {
			h.Data(buf[:n])
		}
	}
	if err == nil {
		return true
	}

	if !t.state.IsOpened() {
		return false
	}
	if isTimeout(err) {
		return true
	}

	t.metrics.ReadErrCount.Add(1)
	t.logger.Debug("read failed", "error", err)
	if h := t.consumer.Load(); h != nil {
		h.HandleIOError(fmt.Errorf("%w: %w", ErrIO, err))
	}

	return false
}

// writeAll writes all bytes in data to the link.
func (t *StreamTransport) writeAll(data []byte) error {
	for written := 0; written < len(data); {
		n, err := t.rw.Write(data[written:])
		written += n
		t.metrics.BytesWritten.Add(uint64(n))

		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
	}

	return nil
}

func (t *StreamTransport) writeError(err error) error {
	t.metrics.WriteErrCount.Add(1)
	if !t.state.IsOpened() {
		return fmt.Errorf("%w: %w", ErrTransportClosed, err)
	}

	return fmt.Errorf("%w: %w", ErrIO, err)
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

func (t *StreamTransport) setWriteDeadline(ctx context.Context) {
	d, ok := t.rw.(writeDeadliner)
	if !ok {
		return
	}

	deadline, _ := ctx.Deadline()
	_ = d.SetWriteDeadline(deadline)
}

// isTimeout reports whether err is a read timeout, which serial ports
// configured with a read timeout return while the line is idle.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
