package pool

import (
	"fmt"
	"sync"
)

// Budget caps the number of bytes outstanding from the wrapped allocator.
type Budget struct {
	next Allocator

	mu    sync.Mutex
	limit int
	inUse int
}

// Limit wraps next so that at most limit bytes are allocated at any time.
// A nil next means Heap.
func Limit(next Allocator, limit int) *Budget {
	if next == nil {
		next = Heap
	}
	return &Budget{next: next, limit: limit}
}

func (b *Budget) Alloc(size int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if size > b.limit-b.inUse {
		return nil, fmt.Errorf("pool: %d bytes requested, %d of %d in use: %w", size, b.inUse, b.limit, ErrNoMemory)
	}
	p, err := b.next.Alloc(size)
	if err != nil {
		return nil, err
	}
	b.inUse += len(p)
	return p, nil
}

func (b *Budget) Free(p []byte) {
	b.mu.Lock()
	b.inUse -= len(p)
	b.mu.Unlock()
	b.next.Free(p)
}

// InUse returns the number of bytes currently allocated through b.
func (b *Budget) InUse() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inUse
}

// SetLimit changes the cap. Regions already handed out are not affected.
func (b *Budget) SetLimit(limit int) {
	b.mu.Lock()
	b.limit = limit
	b.mu.Unlock()
}
