package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gogo/protobuf/proto"

	"github.com/fpemud/dynbuf"
)

// DefaultMaxPayload bounds payloads accepted by a Reader.
const DefaultMaxPayload = 64 * 1024 * 1024

// Reader reads frames from a stream into a reused buffer.
type Reader struct {
	r          io.Reader
	buf        dynbuf.DynBuf
	maxPayload int
}

// NewReader returns a Reader that rejects payloads above maxPayload bytes.
// A maxPayload <= 0 means DefaultMaxPayload.
func NewReader(r io.Reader, maxPayload int, opts ...dynbuf.Option) *Reader {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	fr := &Reader{r: r, maxPayload: maxPayload}
	fr.buf.Configure(opts...)
	return fr
}

// Next reads one frame. The payload is valid until the next call. It
// returns io.EOF only when the stream ends on a frame boundary.
func (fr *Reader) Next() (id uint32, payload []byte, err error) {
	fr.buf.Clear()
	if err := fr.fill(HeaderSize); err != nil {
		return 0, nil, err
	}
	header := fr.buf.Bytes()
	id = binary.BigEndian.Uint32(header[:4])
	size := binary.BigEndian.Uint32(header[4:HeaderSize])
	if uint64(size) > uint64(fr.maxPayload) {
		return 0, nil, fmt.Errorf("frame: %d byte payload for %d: %w", size, id, ErrTooLarge)
	}
	if err := fr.fill(int(size)); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}
	return id, fr.buf.Bytes()[HeaderSize:], nil
}

// ReadMsg reads one frame and decodes its payload into msg.
func (fr *Reader) ReadMsg(msg proto.Message) (uint32, error) {
	id, payload, err := fr.Next()
	if err != nil {
		return 0, err
	}
	return id, Decode(payload, msg)
}

// fill reads exactly n more bytes onto the end of the buffer.
func (fr *Reader) fill(n int) error {
	off := fr.buf.Len()
	if err := fr.buf.Expand(n); err != nil {
		return err
	}
	if _, err := io.ReadFull(fr.r, fr.buf.Bytes()[off:]); err != nil {
		fr.buf.Shrink(n)
		return err
	}
	return nil
}

// Close releases the read buffer.
func (fr *Reader) Close() error {
	fr.buf.Deinit()
	return nil
}
