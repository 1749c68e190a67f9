package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbrtu/logger"
)

type testConsumer struct {
	mu   sync.Mutex
	data []byte
	errs []error
}

func (c *testConsumer) Data(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = append(c.data, b...)
}

func (c *testConsumer) HandleIOError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errs = append(c.errs, err)
}

func (c *testConsumer) bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]byte(nil), c.data...)
}

func (c *testConsumer) errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]error(nil), c.errs...)
}

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
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
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)

	return nil
}

func (c *fakeClock) total() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sum time.Duration
	for _, d := range c.sleeps {
		sum += d
	}

	return sum
}

// pipeTransport returns a StreamTransport over one end of a net.Pipe and
// the peer end.
func pipeTransport(t *testing.T, opts ...Option) (*StreamTransport, net.Conn) {
	t.Helper()

	local, peer := net.Pipe()
	opts = append([]Option{WithLogger(logger.NewNopMockLogger())}, opts...)
	tr := NewStreamTransport(local, opts...)
	t.Cleanup(func() {
		_ = tr.Close()
		_ = peer.Close()
	})

	return tr, peer
}

// drain reads from conn until it is closed and sends everything read on
// the returned channel.
func drain(conn net.Conn) <-chan []byte {
	out := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(conn)
		out <- data
	}()

	return out
}

func readN(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()

	buf := make([]byte, n)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := io.ReadFull(conn, buf)
	require.NoError(t, err)

	return buf
}

func pipeNetConn() (net.Conn, net.Conn) {
	return net.Pipe()
}
