// Package frame encodes messages as length-prefixed frames inside a dynamic
// buffer and reads them back from a stream.
//
// A frame is a 4 byte big-endian id, a 4 byte big-endian payload length and
// the payload. Payloads are marshaled straight into space reserved in the
// buffer, so no intermediate slice is allocated.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogo/protobuf/proto"

	"github.com/fpemud/dynbuf"
)

// HeaderSize is the number of bytes preceding every payload.
const HeaderSize = 8

var (
	// ErrShortFrame is returned by Split when data ends inside a frame.
	ErrShortFrame = errors.New("frame: short frame")
	// ErrSizeMismatch is returned when a message marshals to a different
	// length than it reported.
	ErrSizeMismatch = errors.New("frame: marshaled size mismatch")
	// ErrTooLarge is returned for payloads above the permitted size.
	ErrTooLarge = errors.New("frame: payload too large")
)

// Msg is a message that can marshal itself into a caller-provided slice.
// Messages generated by gogo/protobuf with the marshaler plugin satisfy it.
type Msg interface {
	Size() int
	MarshalTo(dAtA []byte) (int, error)
}

func encode(dst []byte, id uint32, msg Msg, size int) error {
	binary.BigEndian.PutUint32(dst[:4], id)
	binary.BigEndian.PutUint32(dst[4:HeaderSize], uint32(size))
	n, err := msg.MarshalTo(dst[HeaderSize:])
	if err != nil {
		return fmt.Errorf("frame: marshal %d: %w", id, err)
	}
	if n != size {
		return fmt.Errorf("frame: marshal %d: %d bytes, reported %d: %w", id, n, size, ErrSizeMismatch)
	}
	return nil
}

func payloadSize(msg Msg) (int, error) {
	size := msg.Size()
	if size < 0 || int64(size) > math.MaxUint32 {
		return 0, fmt.Errorf("frame: %d byte payload: %w", size, ErrTooLarge)
	}
	return size, nil
}

// Append adds one frame to the end of b. When marshaling fails b is left as
// it was.
func Append(b *dynbuf.DynBuf, id uint32, msg Msg) error {
	size, err := payloadSize(msg)
	if err != nil {
		return err
	}
	off := b.Len()
	if err := b.Expand(HeaderSize + size); err != nil {
		return err
	}
	if err := encode(b.Bytes()[off:], id, msg, size); err != nil {
		b.Shrink(HeaderSize + size)
		return err
	}
	return nil
}

// Insert places one frame at byte offset pos of b, which should be a frame
// boundary. When marshaling fails b is left as it was.
func Insert(b *dynbuf.DynBuf, pos int, id uint32, msg Msg) error {
	size, err := payloadSize(msg)
	if err != nil {
		return err
	}
	total := HeaderSize + size
	if err := b.InsertFill(pos, 0, total); err != nil {
		return err
	}
	if err := encode(b.Bytes()[pos:pos+total], id, msg, size); err != nil {
		b.Remove(pos, total)
		return err
	}
	return nil
}

// Split decodes the first frame of data. payload and rest alias data.
func Split(data []byte) (id uint32, payload, rest []byte, err error) {
	if len(data) < HeaderSize {
		return 0, nil, data, ErrShortFrame
	}
	id = binary.BigEndian.Uint32(data[:4])
	size := uint64(binary.BigEndian.Uint32(data[4:HeaderSize]))
	if uint64(len(data)-HeaderSize) < size {
		return 0, nil, data, ErrShortFrame
	}
	end := HeaderSize + int(size)
	return id, data[HeaderSize:end], data[end:], nil
}

// Decode unmarshals a payload into msg.
func Decode(payload []byte, msg proto.Message) error {
	if err := proto.Unmarshal(payload, msg); err != nil {
		return fmt.Errorf("frame: decode %T: %w", msg, err)
	}
	return nil
}
