// Package dynbuf implements a growable, contiguous byte buffer that supports
// appending, inserting, overwriting and removing bytes at arbitrary offsets.
//
// The buffer owns a single backing region. Its logical content is
// Bytes()[:Len()]; spare capacity beyond that is never exposed. Capacity grows
// by doubling from 32 bytes until it reaches 10 MiB and by 1 MiB steps after
// that, and it never shrinks on its own.
//
// Growth is the only operation that can fail. A failed growth leaves content,
// length and capacity exactly as they were. Out-of-range positions are
// programming errors and panic.
//
// A DynBuf is not safe for concurrent use. Overlapping mutations are detected
// on a best-effort basis and panic.
package dynbuf

import (
	"errors"
	"fmt"

	"github.com/fpemud/dynbuf/internal/buffer"
	"github.com/fpemud/dynbuf/lib/lock"
	"github.com/fpemud/dynbuf/lib/pool"
)

var (
	// ErrNoMemory is wrapped by errors from operations whose growth was refused
	// by the allocator.
	ErrNoMemory = pool.ErrNoMemory
	// ErrTooLarge is wrapped when the requested capacity can not be represented
	// or allocated at all.
	ErrTooLarge = pool.ErrTooLarge
)

// Policy controls capacity growth. See DefaultPolicy.
type Policy = buffer.Policy

// DefaultPolicy starts at 32 bytes, doubles up to 10 MiB, then grows by 1 MiB.
var DefaultPolicy = buffer.Default

const errConcurrent = "dynbuf: concurrent mutation"

// DynBuf is a growable byte buffer. The zero value is an empty buffer ready
// to use with the heap allocator and DefaultPolicy.
type DynBuf struct {
	buf []byte // len(buf) is the capacity
	n   int

	alloc  pool.Allocator
	policy *Policy
	guard  lock.Lock
}

// New returns an empty heap-allocated buffer configured by opts.
func New(opts ...Option) *DynBuf {
	b := &DynBuf{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Free releases b's storage. It is a no-op on a nil buffer.
func (b *DynBuf) Free() {
	if b == nil {
		return
	}
	b.Deinit()
}

// Init empties b, handing any backing region back to the allocator. The
// allocator and policy are kept.
func (b *DynBuf) Init() {
	if b.buf != nil {
		b.allocator().Free(b.buf)
	}
	b.buf = nil
	b.n = 0
}

// Deinit returns the backing region to the allocator and leaves b empty.
// b may be used again afterwards.
func (b *DynBuf) Deinit() {
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	b.Init()
}

// Len returns the number of bytes of content.
func (b *DynBuf) Len() int { return b.n }

// Cap returns the size of the backing region.
func (b *DynBuf) Cap() int { return len(b.buf) }

// Bytes returns the content. The slice aliases the buffer and is valid only
// until the next mutation.
func (b *DynBuf) Bytes() []byte { return b.buf[:b.n:b.n] }

// String returns a copy of the content as a string.
func (b *DynBuf) String() string {
	if b == nil {
		return "<nil>"
	}
	return string(b.buf[:b.n])
}

func (b *DynBuf) allocator() pool.Allocator {
	if b.alloc == nil {
		return pool.Heap
	}
	return b.alloc
}

func (b *DynBuf) growthPolicy() Policy {
	if b.policy == nil {
		return DefaultPolicy
	}
	return *b.policy
}

// EnsureCapacity grows the backing region so that it holds at least min
// bytes. Content is preserved at the same offsets.
func (b *DynBuf) EnsureCapacity(min int) error {
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	return b.ensure(min)
}

// ensure is the single place where the buffer reallocates. Nothing is
// modified unless the new region has been obtained.
func (b *DynBuf) ensure(min int) error {
	if min >= 0 && min <= len(b.buf) {
		return nil
	}
	size, err := b.growthPolicy().Next(len(b.buf), min)
	if err != nil {
		if errors.Is(err, buffer.ErrOverflow) {
			err = ErrTooLarge
		}
		return fmt.Errorf("dynbuf: grow from %d bytes: %w", len(b.buf), err)
	}
	a := b.allocator()
	p, err := a.Alloc(size)
	if err != nil {
		return fmt.Errorf("dynbuf: grow to %d bytes: %w", size, err)
	}
	copy(p, b.buf[:b.n])
	if b.buf != nil {
		a.Free(b.buf)
	}
	b.buf = p
	return nil
}

func checkCount(op string, n int) {
	if n < 0 {
		panic("dynbuf: " + op + ": negative count")
	}
}

func (b *DynBuf) checkPos(op string, pos int) {
	if pos < 0 || pos > b.n {
		panic(fmt.Sprintf("dynbuf: %s: position %d out of range [0, %d]", op, pos, b.n))
	}
}

// Append adds p to the end of the buffer. p must not alias the buffer.
func (b *DynBuf) Append(p []byte) error {
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	if err := b.ensure(b.n + len(p)); err != nil {
		return err
	}
	b.n += copy(b.buf[b.n:], p)
	return nil
}

// AppendFill adds n copies of c to the end of the buffer.
func (b *DynBuf) AppendFill(c byte, n int) error {
	checkCount("append fill", n)
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	if err := b.ensure(b.n + n); err != nil {
		return err
	}
	buffer.Fill(b.buf[b.n:b.n+n], c)
	b.n += n
	return nil
}

// Write appends p and always reports len(p) on success. It implements
// io.Writer.
func (b *DynBuf) Write(p []byte) (int, error) {
	if err := b.Append(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString appends s.
func (b *DynBuf) WriteString(s string) (int, error) {
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	if err := b.ensure(b.n + len(s)); err != nil {
		return 0, err
	}
	b.n += copy(b.buf[b.n:], s)
	return len(s), nil
}

// WriteByte appends c.
func (b *DynBuf) WriteByte(c byte) error {
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	if err := b.ensure(b.n + 1); err != nil {
		return err
	}
	b.buf[b.n] = c
	b.n++
	return nil
}

// Insert places p at pos, moving the bytes from pos onwards up by len(p).
// pos must be in [0, Len()]. p must not alias the buffer.
func (b *DynBuf) Insert(pos int, p []byte) error {
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	b.checkPos("insert", pos)
	if len(p) == 0 {
		return nil
	}
	if err := b.open(pos, len(p)); err != nil {
		return err
	}
	copy(b.buf[pos:], p)
	return nil
}

// InsertFill places n copies of c at pos. pos must be in [0, Len()].
func (b *DynBuf) InsertFill(pos int, c byte, n int) error {
	checkCount("insert fill", n)
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	b.checkPos("insert fill", pos)
	if n == 0 {
		return nil
	}
	if err := b.open(pos, n); err != nil {
		return err
	}
	buffer.Fill(b.buf[pos:pos+n], c)
	return nil
}

// open makes an n byte gap at pos. Growth happens before anything moves.
func (b *DynBuf) open(pos, n int) error {
	if err := b.ensure(b.n + n); err != nil {
		return err
	}
	buffer.ShiftRight(b.buf, pos, b.n, n)
	b.n += n
	return nil
}

// WriteAt overwrites the buffer with p starting at off, extending the content
// when p runs past the end. off must be in [0, Len()]. It implements
// io.WriterAt.
func (b *DynBuf) WriteAt(p []byte, off int64) (int, error) {
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	if off < 0 || off > int64(b.n) {
		panic(fmt.Sprintf("dynbuf: write: position %d out of range [0, %d]", off, b.n))
	}
	pos := int(off)
	if err := b.ensure(pos + len(p)); err != nil {
		return 0, err
	}
	copy(b.buf[pos:], p)
	if end := pos + len(p); end > b.n {
		b.n = end
	}
	return len(p), nil
}

// WriteFill overwrites n bytes at pos with c, extending the content when the
// range runs past the end. pos must be in [0, Len()].
func (b *DynBuf) WriteFill(pos int, c byte, n int) error {
	checkCount("write fill", n)
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	b.checkPos("write fill", pos)
	if err := b.ensure(pos + n); err != nil {
		return err
	}
	buffer.Fill(b.buf[pos:pos+n], c)
	if end := pos + n; end > b.n {
		b.n = end
	}
	return nil
}

// Remove deletes n bytes at pos, moving the tail down. pos+n must not exceed
// Len().
func (b *DynBuf) Remove(pos, n int) {
	checkCount("remove", n)
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	if pos < 0 || pos > b.n || n > b.n-pos {
		panic(fmt.Sprintf("dynbuf: remove: range [%d, %d+%d) out of range [0, %d)", pos, pos, n, b.n))
	}
	if n == 0 {
		return
	}
	buffer.ShiftLeft(b.buf, pos, b.n, n)
	b.n -= n
}

// Expand lengthens the content by n bytes without writing them. The new
// bytes have unspecified values; callers fill them through Bytes.
func (b *DynBuf) Expand(n int) error {
	checkCount("expand", n)
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	if err := b.ensure(b.n + n); err != nil {
		return err
	}
	b.n += n
	return nil
}

// Shrink drops the last n bytes of content. Capacity is unchanged.
func (b *DynBuf) Shrink(n int) {
	checkCount("shrink", n)
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	if n > b.n {
		panic(fmt.Sprintf("dynbuf: shrink: %d bytes from length %d", n, b.n))
	}
	b.n -= n
}

// Clear drops all content and keeps the capacity for reuse.
func (b *DynBuf) Clear() {
	b.guard.MustLock(errConcurrent)
	defer b.guard.Unlock()
	b.n = 0
}
