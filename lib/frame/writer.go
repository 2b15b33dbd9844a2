package frame

import (
	"fmt"
	"io"

	"github.com/fpemud/dynbuf"
)

// DefaultFlushSize is the buffered length at which a Writer flushes.
const DefaultFlushSize = 512 * 1024

// Writer batches frames and writes them to an underlying io.Writer once
// enough bytes have accumulated.
type Writer struct {
	w         io.Writer
	buf       dynbuf.DynBuf
	flushSize int
	frames    int
}

// NewWriter returns a Writer flushing to w whenever at least flushSize bytes
// are buffered. A flushSize <= 0 means DefaultFlushSize. opts configure the
// batching buffer.
func NewWriter(w io.Writer, flushSize int, opts ...dynbuf.Option) *Writer {
	if flushSize <= 0 {
		flushSize = DefaultFlushSize
	}
	fw := &Writer{w: w, flushSize: flushSize}
	fw.buf.Configure(opts...)
	return fw
}

// WriteMsg buffers one frame and flushes if the batch is full.
func (fw *Writer) WriteMsg(id uint32, msg Msg) error {
	if err := Append(&fw.buf, id, msg); err != nil {
		return err
	}
	fw.frames++
	if fw.buf.Len() >= fw.flushSize {
		return fw.Flush()
	}
	return nil
}

// Buffered returns the number of bytes waiting to be written.
func (fw *Writer) Buffered() int { return fw.buf.Len() }

// Frames returns the number of frames written through fw.
func (fw *Writer) Frames() int { return fw.frames }

// Flush writes every buffered byte. Bytes the underlying writer accepted
// before failing are dropped, the rest stay buffered.
func (fw *Writer) Flush() error {
	if fw.buf.Len() == 0 {
		return nil
	}
	n, err := fw.w.Write(fw.buf.Bytes())
	if err != nil {
		fw.buf.Remove(0, n)
		return fmt.Errorf("frame: flush: %w", err)
	}
	if n < fw.buf.Len() {
		fw.buf.Remove(0, n)
		return fmt.Errorf("frame: flush: %w", io.ErrShortWrite)
	}
	fw.buf.Clear()
	return nil
}

// Close flushes and releases the batching buffer.
func (fw *Writer) Close() error {
	err := fw.Flush()
	fw.buf.Deinit()
	return err
}
