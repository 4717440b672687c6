// Package ksync provides the kernel's generic lock on top of the
// architecture's bare spinlock.
package ksync

import "kestrel/arch"

// SpinLock guards a value of type T. The lock does not touch the interrupt
// mask: code that must also exclude interrupt handlers masks them before
// locking.
type SpinLock[T any] struct {
	_     [0]func() // prevent accidental copying.
	lock  arch.BareSpinLock
	value T
}

// NewSpinLock returns an unlocked SpinLock holding v.
func NewSpinLock[T any](v T) *SpinLock[T] {
	return &SpinLock[T]{value: v}
}

// Guard is the proof of exclusive access to a SpinLock's value. It is
// passed by value: the scheduler hands it through arch.ContextSwitch, so
// the lock stays held while no thread is fully running.
type Guard[T any] struct {
	l *SpinLock[T]
}

// Lock acquires l.
func (l *SpinLock[T]) Lock() Guard[T] {
	l.lock.Lock()
	return Guard[T]{l: l}
}

// TryLock acquires l if it is free.
func (l *SpinLock[T]) TryLock() (Guard[T], bool) {
	if !l.lock.TryLock() {
		return Guard[T]{}, false
	}
	return Guard[T]{l: l}, true
}

// Held reports whether g still proves ownership.
func (g Guard[T]) Held() bool { return g.l != nil }

// Value returns the guarded value. It is only valid until Unlock.
func (g Guard[T]) Value() *T {
	if g.l == nil {
		arch.Fatal("ksync: value accessed through a released guard")
	}
	return &g.l.value
}

// Unlock releases the lock and invalidates g.
func (g *Guard[T]) Unlock() {
	if g.l == nil {
		arch.Fatal("ksync: unlock through a released guard")
	}
	l := g.l
	g.l = nil
	l.lock.Unlock()
}
