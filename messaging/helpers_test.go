package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbrtu/logger"
	"github.com/arloliu/go-mbrtu/rtu"
	"github.com/arloliu/go-mbrtu/transport"
)

// fakeTransport records writes and delivers inbound bytes on its own
// goroutine, the way a real transport's read loop does.
type fakeTransport struct {
	mu       sync.Mutex
	consumer transport.DataConsumer
	writes   [][]byte
	onWrite  func(n int, data []byte)
	writeErr error

	inbound chan []byte
	done    chan struct{}
	once    sync.Once
}

var _ transport.Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 64),
		done:    make(chan struct{}),
	}
}

func (f *fakeTransport) Start(consumer transport.DataConsumer) error {
	f.mu.Lock()
	f.consumer = consumer
	f.mu.Unlock()

	f.once.Do(func() {
		go f.readLoop()
	})

	return nil
}

func (f *fakeTransport) readLoop() {
	for {
		select {
		case <-f.done:
			return
		case b := <-f.inbound:
			f.mu.Lock()
			c := f.consumer
			f.mu.Unlock()
			if c != nil {
				c.Data(b)
			}
		}
	}
}

func (f *fakeTransport) RemoveConsumer() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.consumer = nil
}

func (f *fakeTransport) Write(_ context.Context, data []byte) error {
	f.mu.Lock()
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()

		return err
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	n := len(f.writes)
	onWrite := f.onWrite
	f.mu.Unlock()

	if onWrite != nil {
		onWrite(n, data)
	}

	return nil
}

func (f *fakeTransport) Close() error {
	select {
	case <-f.done:
	default:
		close(f.done)
	}

	return nil
}

// feed queues inbound bytes for the read goroutine.
func (f *fakeTransport) feed(b []byte) {
	f.inbound <- append([]byte(nil), b...)
}

func (f *fakeTransport) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.writes)
}

func (f *fakeTransport) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]byte(nil), f.writes...)
}

// errorRecorder is an ExceptionHandler that keeps every error.
type errorRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *errorRecorder) handle(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errs = append(r.errs, err)
}

func (r *errorRecorder) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]error(nil), r.errs...)
}

// fakeClock only moves when advanced.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.advance(d)
	return ctx.Err()
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestControl(t *testing.T, role rtu.Role, tr transport.Transport, handler RequestHandler, opts ...Option) *MessageControl {
	t.Helper()

	opts = append([]Option{WithLogger(logger.NewNopMockLogger())}, opts...)
	mc, err := NewMessageControl(rtu.NewCodec(role), opts...)
	require.NoError(t, err)
	require.NoError(t, mc.Start(tr, handler))
	t.Cleanup(func() {
		_ = mc.Close()
		_ = tr.Close()
	})

	return mc
}

func encode(t *testing.T, msg *rtu.Message) []byte {
	t.Helper()

	b, err := rtu.Encode(msg)
	require.NoError(t, err)

	return b
}

func holdingResponse(slaveID byte, value byte) *rtu.Message {
	return rtu.NewResponse(slaveID, rtu.FuncCodeReadHoldingRegisters, []byte{0x02, 0x00, value})
}
