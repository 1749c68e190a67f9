package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-mbrtu/internal/queue"
	"github.com/arloliu/go-mbrtu/internal/task"
	"github.com/arloliu/go-mbrtu/logger"
	"github.com/arloliu/go-mbrtu/rtu"
	"github.com/arloliu/go-mbrtu/transport"
)

// writeRequest is a frame queued for the writer task. done receives the
// result of the transport write.
type writeRequest struct {
	ctx  context.Context
	data []byte
	done chan error
}

// MessageControl sends requests and dispatches incoming messages over a
// transport.
type MessageControl struct {
	cfg    *Config
	codec  *rtu.Codec
	room   *WaitingRoom
	logger logger.Logger

	// buf and lastData are owned by the transport's read goroutine.
	buf      *queue.ByteQueue
	lastData time.Time

	mu        sync.RWMutex // protect transport and handler
	transport transport.Transport
	handler   RequestHandler

	taskMgr *task.Manager
	writeCh chan *writeRequest
	started atomic.Bool
	closed  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	metrics ControlMetrics
}

var _ transport.DataConsumer = (*MessageControl)(nil)

// NewMessageControl creates a MessageControl that frames messages with codec.
func NewMessageControl(codec *rtu.Codec, opts ...Option) (*MessageControl, error) {
	if codec == nil {
		return nil, errors.New("messaging: nil codec")
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	mc := &MessageControl{
		cfg:     cfg,
		codec:   codec,
		room:    NewWaitingRoom(cfg.keyFactory),
		logger:  cfg.logger.With("role", codec.Role().String()),
		buf:     queue.NewByteQueue(rtu.MaxFrameSize),
		writeCh: make(chan *writeRequest, cfg.writeQueueSize),
	}
	mc.ctx, mc.cancel = context.WithCancel(context.Background())
	mc.taskMgr = task.NewManager(mc.ctx, mc.logger)

	return mc, nil
}

// Config returns the configuration.
func (mc *MessageControl) Config() *Config {
	return mc.cfg
}

// Metrics returns the counters.
func (mc *MessageControl) Metrics() *ControlMetrics {
	return &mc.metrics
}

// WaitingRoom returns the waiting room used to correlate responses.
func (mc *MessageControl) WaitingRoom() *WaitingRoom {
	return mc.room
}

// Start starts the writer task and registers mc as the consumer of tr.
// handler answers incoming requests and may be nil in the master role.
func (mc *MessageControl) Start(tr transport.Transport, handler RequestHandler) error {
	if tr == nil {
		return errors.New("messaging: nil transport")
	}
	if mc.closed.Load() {
		return ErrControlClosed
	}
	if !mc.started.CompareAndSwap(false, true) {
		return errors.New("messaging: already started")
	}

	mc.mu.Lock()
	mc.transport = tr
	mc.handler = handler
	mc.mu.Unlock()

	err := task.StartConsumer(mc.taskMgr, "writer", mc.writeCh, mc.writeTask, nil)
	if err != nil {
		mc.started.Store(false)
		return err
	}

	if err := tr.Start(mc); err != nil {
		mc.taskMgr.Stop()
		mc.taskMgr.Wait()
		mc.started.Store(false)

		return err
	}

	mc.logger.Debug("message control started",
		"timeout", mc.cfg.timeout, "retries", mc.cfg.retries, "discardDataDelay", mc.cfg.discardDataDelay)

	return nil
}

// Close stops the writer task, detaches from the transport and fails every
// pending Send with ErrControlClosed. The transport itself is left open.
func (mc *MessageControl) Close() error {
	if !mc.closed.CompareAndSwap(false, true) {
		return nil
	}

	mc.cancel()
	mc.taskMgr.Stop()
	mc.taskMgr.Wait()

	if tr := mc.getTransport(); tr != nil {
		tr.RemoveConsumer()
	}
	mc.room.DropAll(ErrControlClosed)
	mc.logger.Debug("message control closed")

	return nil
}

// Send sends req and waits for its response using the configured timeout
// and retries.
//
// Requests that expect no response are written and return (nil, nil).
func (mc *MessageControl) Send(ctx context.Context, req *rtu.Message) (*rtu.Message, error) {
	return mc.SendWith(ctx, req, mc.cfg.timeout, mc.cfg.retries)
}

// SendWith is Send with an explicit timeout per attempt and retry count.
//
// Each attempt writes the request and waits up to timeout for the
// response. After retries+1 attempts the error wraps ErrRequestTimeout.
// Write failures and ctx cancellation end the exchange immediately.
func (mc *MessageControl) SendWith(ctx context.Context, req *rtu.Message, timeout time.Duration, retries int) (*rtu.Message, error) {
	if req == nil || !req.IsRequest() {
		return nil, fmt.Errorf("messaging: not a request: %v", req)
	}
	if err := mc.checkOpen(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = mc.cfg.timeout
	}
	if retries < 0 {
		retries = 0
	}

	data, err := mc.codec.Encode(req)
	if err != nil {
		return nil, err
	}

	mc.metrics.RequestCount.Add(1)

	if !req.ExpectsResponse() {
		if req.NoWrite {
			return nil, nil //nolint:nilnil
		}

		return nil, mc.write(ctx, data)
	}

	key := mc.room.KeyOf(req)
	if err := mc.room.Enter(key); err != nil {
		return nil, err
	}
	defer mc.room.Leave(key)

	mc.metrics.InflightCount.Add(1)
	defer mc.metrics.InflightCount.Add(-1)

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			mc.metrics.RetryCount.Add(1)
			mc.logger.Debug("retry request", "slaveID", req.SlaveID, "fc", req.FunctionCode, "attempt", attempt)
		}

		if !req.NoWrite {
			if err := mc.write(ctx, data); err != nil {
				return nil, err
			}
		}

		resp, err := mc.room.Wait(ctx, key, timeout)
		switch {
		case err == nil:
			return resp, nil
		case errors.Is(err, ErrWaitTimeout):
			continue
		case errors.Is(err, ErrNotEntered) && mc.closed.Load():
			return nil, ErrControlClosed
		default:
			return nil, err
		}
	}

	mc.metrics.TimeoutCount.Add(1)
	mc.logger.Warn("request timeout", "slaveID", req.SlaveID, "fc", req.FunctionCode,
		"timeout", timeout, "retries", retries)

	return nil, fmt.Errorf("%w: slave %d fc 0x%02X after %d attempts", ErrRequestTimeout,
		req.SlaveID, req.FunctionCode, retries+1)
}

// SendResponse writes resp, typically a reply built outside a RequestHandler.
func (mc *MessageControl) SendResponse(ctx context.Context, resp *rtu.Message) error {
	if resp == nil || !resp.IsResponse() {
		return fmt.Errorf("messaging: not a response: %v", resp)
	}
	if err := mc.checkOpen(); err != nil {
		return err
	}

	data, err := mc.codec.Encode(resp)
	if err != nil {
		return err
	}

	return mc.write(ctx, data)
}

// Data implements transport.DataConsumer. It appends b to the receive
// buffer and dispatches every complete message in it.
func (mc *MessageControl) Data(b []byte) {
	if mc.closed.Load() {
		return
	}

	now := mc.cfg.clock.Now()
	if mc.cfg.discardDataDelay > 0 && mc.buf.Len() > 0 && now.Sub(mc.lastData) > mc.cfg.discardDataDelay {
		mc.logger.Debug("discard stale data", "bytes", mc.buf.Len(), "idle", now.Sub(mc.lastData))
		mc.metrics.DiscardCount.Add(1)
		mc.buf.Clear()
	}
	mc.lastData = now

	mc.buf.Push(b)

	for mc.buf.Len() > 0 {
		msg, err := mc.codec.Decode(mc.buf)
		if err != nil {
			if errors.Is(err, rtu.ErrIncomplete) {
				break
			}

			mc.metrics.FrameErrCount.Add(1)
			mc.cfg.exceptionHandler(err)

			continue
		}

		mc.dispatch(msg)
	}
}

// HandleIOError implements transport.DataConsumer. The error goes to the
// exception handler and to every sender currently waiting for a response.
func (mc *MessageControl) HandleIOError(err error) {
	mc.cfg.exceptionHandler(err)
	if n := mc.room.FailAll(err); n > 0 {
		mc.logger.Debug("read error failed pending requests", "count", n, "error", err)
	}
}

func (mc *MessageControl) dispatch(msg *rtu.Message) {
	mc.logger.Debug("received", "message", msg.String())

	if msg.IsResponse() {
		if mc.room.Deliver(msg) {
			mc.metrics.ResponseCount.Add(1)
			return
		}

		mc.metrics.DroppedResponseCount.Add(1)
		mc.logger.Debug("response has no waiting sender, dropped", "slaveID", msg.SlaveID, "fc", msg.FunctionCode)

		return
	}

	handler := mc.getHandler()
	if handler == nil {
		mc.logger.Debug("no request handler, request dropped", "slaveID", msg.SlaveID, "fc", msg.FunctionCode)
		return
	}

	mc.metrics.RequestHandledCount.Add(1)
	resp, err := handler.HandleRequest(msg)
	if err != nil {
		mc.cfg.exceptionHandler(fmt.Errorf("messaging: handle request slave %d fc 0x%02X: %w",
			msg.SlaveID, msg.FunctionCode, err))

		return
	}
	if resp == nil || msg.IsBroadcast() {
		return
	}

	if err := mc.SendResponse(mc.ctx, resp); err != nil {
		mc.cfg.exceptionHandler(err)
	}
}

// write queues data for the writer task and waits for the result.
func (mc *MessageControl) write(ctx context.Context, data []byte) error {
	req := &writeRequest{ctx: ctx, data: data, done: make(chan error, 1)}

	select {
	case mc.writeCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-mc.ctx.Done():
		return ErrControlClosed
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-mc.ctx.Done():
		return ErrControlClosed
	}
}

func (mc *MessageControl) writeTask(req *writeRequest) bool {
	tr := mc.getTransport()

	mc.logger.Debug("write", "data", logger.Frame(req.data))
	err := tr.Write(req.ctx, req.data)
	if errors.Is(err, transport.ErrIO) {
		mc.cfg.exceptionHandler(err)
	}
	req.done <- err

	return true
}

func (mc *MessageControl) checkOpen() error {
	if mc.closed.Load() {
		return ErrControlClosed
	}
	if !mc.started.Load() {
		return ErrNotStarted
	}

	return nil
}

func (mc *MessageControl) getTransport() transport.Transport {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.transport
}

func (mc *MessageControl) getHandler() RequestHandler {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.handler
}
