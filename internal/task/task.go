// Package task manages the goroutines behind transports and message
// controls: read loops and channel-fed writers.
package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-mbrtu/logger"
)

// TaskFunc performs one iteration of a task.
// It returns true to keep running, or false to stop the goroutine.
type TaskFunc func() bool

// CancelFunc is called when a goroutine managed by the Manager exits.
type CancelFunc func()

const startTimeout = 5 * time.Second

// Manager manages the lifecycle of goroutines.
//
// All tasks share a context derived from the parent context. Stop cancels
// it, Wait blocks until every task has returned and then re-arms the
// manager so tasks can be started again.
type Manager struct {
	pctx   context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
	mu     sync.RWMutex // protect ctx and cancel
	taskMu sync.RWMutex // protect task creation during Wait()
}

// NewManager creates a Manager that uses ctx as the parent context.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	mgr := &Manager{pctx: ctx, logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context shared by the running tasks.
func (mgr *Manager) Context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start runs taskFunc repeatedly in a new goroutine until it returns false
// or the manager is stopped. cancelFunc, if not nil, runs when the
// goroutine exits.
func (mgr *Manager) Start(name string, taskFunc TaskFunc, cancelFunc CancelFunc) error {
	mgr.logger.Debug("start task", "name", name)

	return mgr.run(name, func() {
		if cancelFunc != nil {
			defer cancelFunc()
		}

		for {
			select {
			case <-mgr.Context().Done():
				return
			default:
				if !mgr.callWithRecover(name, taskFunc) {
					return
				}
			}
		}
	})
}

// StartConsumer starts a goroutine that calls taskFunc for each item
// received from input, until taskFunc returns false, input is closed or the
// manager is stopped.
func StartConsumer[T any](mgr *Manager, name string, input <-chan T, taskFunc func(T) bool, cancelFunc CancelFunc) error {
	mgr.logger.Debug("start consumer task", "name", name)

	if input == nil {
		return fmt.Errorf("input channel is nil")
	}

	return mgr.run(name, func() {
		if cancelFunc != nil {
			defer cancelFunc()
		}

		ctx := mgr.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-input:
				if !ok {
					mgr.logger.Debug("input channel closed", "name", name)
					return
				}
				if !mgr.callWithRecover(name, func() bool { return taskFunc(item) }) {
					return
				}
			}
		}
	})
}

// Stop signals all running goroutines.
func (mgr *Manager) Stop() {
	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait waits for all goroutines to terminate.
func (mgr *Manager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	// recreate context with lock
	mgr.mu.Lock()
	mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	mgr.mu.Unlock()
}

// TaskCount returns the number of currently running goroutines.
func (mgr *Manager) TaskCount() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) callWithRecover(name string, fn func() bool) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			cont = false
		}
	}()

	return fn()
}

func (mgr *Manager) run(name string, body func()) error {
	ctx := mgr.Context()
	select {
	case <-ctx.Done():
		return fmt.Errorf("task manager already stopped")
	default:
	}

	mgr.taskMu.RLock()
	mgr.wg.Add(1)
	mgr.taskMu.RUnlock()

	started := make(chan struct{})
	go func() {
		defer mgr.wg.Done()

		mgr.count.Add(1)
		close(started)

		defer func() {
			mgr.count.Add(-1)
			mgr.logger.Debug(name+" task terminated", "task_count", mgr.TaskCount())
		}()

		body()
	}()

	select {
	case <-started:
		return nil
	case <-time.After(startTimeout):
		return fmt.Errorf("timeout waiting for %s to start", name)
	}
}
