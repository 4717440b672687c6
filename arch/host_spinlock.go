//go:build !tinygo

package arch

import (
	"runtime"
	"sync/atomic"
)

// BareSpinLock is the raw lock the scheduler lock is built on. The zero
// value is unlocked.
//
// Host contexts are goroutines that the Go runtime may run in parallel, so
// contention is real and the lock spins, yielding between attempts.
type BareSpinLock struct {
	_    [0]func()
	held atomic.Bool
}

func (l *BareSpinLock) Lock() {
	for !l.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (l *BareSpinLock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}

func (l *BareSpinLock) Unlock() {
	if !l.held.CompareAndSwap(true, false) {
		Fatal("arch: unlock of unlocked spinlock")
	}
}
