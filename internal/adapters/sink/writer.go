package sink

import (
	"io"

	"github.com/mikey-austin/simplert/pkg/printstream"
)

// Writer hands every byte to an io.Writer in its own one-byte write, the
// way a raw write syscall would receive it.
type Writer struct {
	w   io.Writer
	buf [1]byte
}

var _ printstream.Sink = (*Writer)(nil)

// NewWriter returns a Sink writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// PutByte writes b.
func (s *Writer) PutByte(b byte) error {
	s.buf[0] = b
	n, err := s.w.Write(s.buf[:])
	if err != nil {
		return err
	}
	if n != 1 {
		return io.ErrShortWrite
	}
	return nil
}
