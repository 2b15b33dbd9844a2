package buffer

import "errors"

// ErrOverflow is returned when a requested size can not be represented.
var ErrOverflow = errors.New("buffer: size overflows int")

const maxInt = int(^uint(0) >> 1)

// Policy describes how a backing region grows: start at Initial, double while
// below Threshold, then add Increment per step.
type Policy struct {
	Initial   int
	Threshold int
	Increment int
}

// Default is the growth policy used when none is configured.
var Default = Policy{
	Initial:   32,
	Threshold: 10 * 1024 * 1024,
	Increment: 1 * 1024 * 1024,
}

// Valid reports whether every step of p makes progress.
func (p Policy) Valid() bool {
	return p.Initial > 0 && p.Threshold > 0 && p.Increment > 0
}

// Next returns the capacity to allocate so that at least need bytes fit,
// starting from the current capacity cur. It returns cur when no growth is
// required.
func (p Policy) Next(cur, need int) (int, error) {
	if need < 0 {
		return 0, ErrOverflow
	}
	if cur >= need {
		return cur, nil
	}
	size := cur
	if size < p.Initial {
		size = p.Initial
	}
	for size < need && size < p.Threshold {
		if size > maxInt/2 {
			return 0, ErrOverflow
		}
		size *= 2
	}
	if size < need {
		steps := (need-size-1)/p.Increment + 1
		if steps > (maxInt-size)/p.Increment {
			return 0, ErrOverflow
		}
		size += steps * p.Increment
	}
	return size, nil
}

// ShiftRight moves buf[pos:length] up by n bytes. buf must hold length+n bytes.
// copy has memmove semantics, so the overlapping move runs from the high end.
func ShiftRight(buf []byte, pos, length, n int) {
	copy(buf[pos+n:length+n], buf[pos:length])
}

// ShiftLeft moves buf[pos+n:length] down to pos, closing an n byte gap.
func ShiftLeft(buf []byte, pos, length, n int) {
	copy(buf[pos:length-n], buf[pos+n:length])
}

// Fill sets every byte of b to c.
func Fill(b []byte, c byte) {
	if len(b) == 0 {
		return
	}
	b[0] = c
	for filled := 1; filled < len(b); filled *= 2 {
		copy(b[filled:], b[:filled])
	}
}
