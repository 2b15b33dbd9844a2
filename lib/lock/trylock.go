// Package lock holds a non-blocking lock used to catch concurrent misuse.
package lock

import (
	"sync/atomic"
)

// Lock is a flag flipped with compare-and-swap. The zero value is free.
type Lock struct {
	held atomic.Bool
}

// TryLock takes the lock when nobody holds it and reports whether it did.
func (l *Lock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}

// Unlock frees the lock and reports whether it had been taken.
func (l *Lock) Unlock() bool {
	return l.held.CompareAndSwap(true, false)
}

// Locked reports whether the lock is taken right now.
func (l *Lock) Locked() bool {
	return l.held.Load()
}

// MustLock takes the lock or panics with msg.
func (l *Lock) MustLock(msg string) {
	if !l.TryLock() {
		panic(msg)
	}
}
