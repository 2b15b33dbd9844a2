package pool

import (
	"math/bits"
	"sync"
)

const (
	minClassShift = 6 // 64 bytes
	numClasses    = 26
	maxQueued     = 1024
)

// SizeClass recycles regions in power-of-two classes from 64 bytes up to
// 2 GiB. Larger requests fall through to the heap. It is safe for concurrent
// use, so many buffers may share one.
type SizeClass struct {
	mu      sync.Mutex
	classes [numClasses][][]byte
}

// NewSizeClass returns an empty size-class pool.
func NewSizeClass() *SizeClass {
	return &SizeClass{}
}

func classOf(size int) int {
	if size <= 1<<minClassShift {
		return 0
	}
	i := bits.Len64(uint64(size)) - minClassShift
	if size&(size-1) == 0 {
		i--
	}
	return i
}

func (p *SizeClass) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrTooLarge
	}
	i := classOf(size)
	if i >= numClasses {
		return makeSlice(size)
	}
	p.mu.Lock()
	if q := p.classes[i]; len(q) > 0 {
		b := q[len(q)-1]
		q[len(q)-1] = nil
		p.classes[i] = q[:len(q)-1]
		p.mu.Unlock()
		return b[:size], nil
	}
	p.mu.Unlock()
	b, err := makeSlice(1 << (minClassShift + i))
	if err != nil {
		return nil, err
	}
	return b[:size], nil
}

// Free queues b for reuse if its capacity is exactly one of the classes.
func (p *SizeClass) Free(b []byte) {
	c := cap(b)
	if c < 1<<minClassShift || c&(c-1) != 0 {
		return
	}
	i := bits.Len64(uint64(c)) - minClassShift - 1
	if i >= numClasses {
		return
	}
	p.mu.Lock()
	if len(p.classes[i]) < maxQueued {
		p.classes[i] = append(p.classes[i], b[:c])
	}
	p.mu.Unlock()
}

// Queued reports how many regions are waiting for reuse.
func (p *SizeClass) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, q := range p.classes {
		n += len(q)
	}
	return n
}
