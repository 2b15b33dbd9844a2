// Package pool provides the allocators that back dynamic buffers.
//
// An Allocator hands out byte regions of an exact length and takes them back
// when a buffer outgrows or releases them. Heap allocates fresh regions,
// SizeClass recycles regions in power-of-two classes, and Budget caps the
// bytes another allocator may hand out, which also makes allocation failure
// reproducible.
package pool

import "errors"

var (
	// ErrNoMemory is returned when an allocator refuses a request.
	ErrNoMemory = errors.New("pool: out of memory")
	// ErrTooLarge is returned when a region of the requested size can not be made.
	ErrTooLarge = errors.New("pool: region too large")
)

// Allocator provides backing regions. Alloc returns a slice of exactly size
// bytes with unspecified content. Free gives a region obtained from Alloc back;
// the caller must not touch it afterwards.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte)
}

type heap struct{}

// Heap allocates with make and leaves freed regions to the garbage collector.
var Heap Allocator = heap{}

func (heap) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrTooLarge
	}
	return makeSlice(size)
}

func (heap) Free([]byte) {}

// makeSlice allocates a slice of size n, turning a failed make into ErrTooLarge.
func makeSlice(n int) (b []byte, err error) {
	defer func() {
		if recover() != nil {
			b, err = nil, ErrTooLarge
		}
	}()
	return make([]byte, n), nil
}
