//go:build tinygo && cortexm

package arch

import "sync/atomic"

// BareSpinLock is the raw lock the scheduler lock is built on. The zero
// value is unlocked.
//
// The AN505 has a single core and the lock is only taken with interrupts
// masked, so finding it held means the holder is the caller itself.
type BareSpinLock struct {
	_    [0]func()
	held atomic.Bool
}

func (l *BareSpinLock) Lock() {
	if !l.held.CompareAndSwap(false, true) {
		Fatal("arch: recursive spinlock acquisition")
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
