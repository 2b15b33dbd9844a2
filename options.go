package dynbuf

import (
	"fmt"

	"github.com/fpemud/dynbuf/lib/pool"
)

// Option configures a buffer created by New.
type Option func(*DynBuf)

// WithAllocator makes the buffer obtain and release its backing regions
// through a. A nil a means pool.Heap.
func WithAllocator(a pool.Allocator) Option {
	return func(b *DynBuf) {
		b.alloc = a
	}
}

// WithPolicy replaces DefaultPolicy. It panics if a step of p would not grow.
func WithPolicy(p Policy) Option {
	if !p.Valid() {
		panic(fmt.Sprintf("dynbuf: invalid growth policy %+v", p))
	}
	return func(b *DynBuf) {
		b.policy = &p
	}
}

// Configure applies opts to an existing buffer, such as a zero value
// embedded in another struct. It panics once b holds a backing region, since
// that region belongs to the allocator in use.
func (b *DynBuf) Configure(opts ...Option) {
	if b.buf != nil {
		panic("dynbuf: configure after first allocation")
	}
	for _, opt := range opts {
		opt(b)
	}
}
