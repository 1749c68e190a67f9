// Package pool holds sync.Pool backed allocators for the hot paths: timers
// used by bounded waits and read buffers used by transport read loops.
package pool

import (
	"sync"
	"time"
)

var timerPool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()

		return t
	},
}

// GetTimer returns a stopped-then-armed timer that fires after d.
//
// Return the timer with PutTimer once the wait is over.
func GetTimer(d time.Duration) *time.Timer {
	t, _ := timerPool.Get().(*time.Timer)
	if !t.Stop() {
		drain(t)
	}
	t.Reset(d)

	return t
}

// PutTimer stops t and returns it to the pool.
//
// t must not be used after PutTimer.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		drain(t)
	}
	timerPool.Put(t)
}

func drain(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
