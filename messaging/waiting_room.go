package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-mbrtu/internal/pool"
	"github.com/arloliu/go-mbrtu/rtu"
)

type waitResult struct {
	msg *rtu.Message
	err error
}

type waiter struct {
	// slot holds at most one result; a delivery made before Wait is kept.
	slot chan waitResult
}

// WaitingRoom correlates responses with the senders waiting for them.
//
// Each key has at most one waiter. Waiters on different keys never
// contend on a shared lock.
type WaitingRoom struct {
	keyFactory rtu.KeyFactory
	waiters    *xsync.MapOf[rtu.Key, *waiter]
}

// NewWaitingRoom creates a WaitingRoom that keys responses with keyFactory,
// or with rtu.DefaultKeyFactory when keyFactory is nil.
func NewWaitingRoom(keyFactory rtu.KeyFactory) *WaitingRoom {
	if keyFactory == nil {
		keyFactory = rtu.DefaultKeyFactory
	}

	return &WaitingRoom{
		keyFactory: keyFactory,
		waiters:    xsync.NewMapOf[rtu.Key, *waiter](),
	}
}

// Enter registers a waiter for key.
func (r *WaitingRoom) Enter(key rtu.Key) error {
	w := &waiter{slot: make(chan waitResult, 1)}
	if _, loaded := r.waiters.LoadOrStore(key, w); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	return nil
}

// Wait blocks until a response for key is delivered, timeout elapses or
// ctx is done. It does not leave the room; the caller must call Leave.
func (r *WaitingRoom) Wait(ctx context.Context, key rtu.Key, timeout time.Duration) (*rtu.Message, error) {
	w, ok := r.waiters.Load(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotEntered, key)
	}

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case res := <-w.slot:
		return res.msg, res.err
	case <-timer.C:
		return nil, ErrWaitTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Leave deregisters the waiter for key. Leaving an absent key is a no-op.
func (r *WaitingRoom) Leave(key rtu.Key) {
	r.waiters.Delete(key)
}

// Deliver hands resp to the waiter registered under its key. It returns
// false when no waiter is registered or the waiter already holds an
// undelivered result; the response is dropped in both cases.
func (r *WaitingRoom) Deliver(resp *rtu.Message) bool {
	w, ok := r.waiters.Load(r.keyFactory.Key(resp))
	if !ok {
		return false
	}

	return w.offer(waitResult{msg: resp})
}

// FailAll wakes every current waiter with err. Waiters stay registered.
func (r *WaitingRoom) FailAll(err error) int {
	n := 0
	r.waiters.Range(func(_ rtu.Key, w *waiter) bool {
		if w.offer(waitResult{err: err}) {
			n++
		}

		return true
	})

	return n
}

// DropAll deregisters every waiter, waking each with err.
func (r *WaitingRoom) DropAll(err error) {
	r.waiters.Range(func(key rtu.Key, _ *waiter) bool {
		if w, ok := r.waiters.LoadAndDelete(key); ok {
			w.offer(waitResult{err: err})
		}

		return true
	})
}

// Size returns the number of registered waiters.
func (r *WaitingRoom) Size() int {
	return r.waiters.Size()
}

// KeyOf returns the correlation key of msg.
func (r *WaitingRoom) KeyOf(msg *rtu.Message) rtu.Key {
	return r.keyFactory.Key(msg)
}

func (w *waiter) offer(res waitResult) bool {
	select {
	case w.slot <- res:
		return true
	default:
		return false
	}
}
