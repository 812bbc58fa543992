package sink

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/mikey-austin/simplert/pkg/printstream"
)

// Encoding reassembles the UTF-8 stream produced by a PrintStream into
// characters and forwards each one re-encoded in a target character set.
// Characters the target cannot represent become its replacement byte.
type Encoding struct {
	next    printstream.Sink
	encoder *encoding.Encoder
	pending [utf8.UTFMax]byte
	n       int
	out     [16]byte
}

var _ printstream.Sink = (*Encoding)(nil)

// LookupEncoding resolves an IANA charset name. UTF-8 and the empty name
// return nil, meaning no transcoding is needed.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// WithEncoding wraps next in an Encoding sink for the named charset, or
// returns next unchanged for UTF-8.
func WithEncoding(next printstream.Sink, name string) (printstream.Sink, error) {
	enc, err := LookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return next, nil
	}
	return NewEncoding(next, enc), nil
}

// NewEncoding wraps next.
func NewEncoding(next printstream.Sink, enc encoding.Encoding) *Encoding {
	return &Encoding{
		next:    next,
		encoder: encoding.ReplaceUnsupported(enc.NewEncoder()),
	}
}

// PutByte buffers b until it completes a character, then forwards the
// character's encoded bytes.
func (e *Encoding) PutByte(b byte) error {
	e.pending[e.n] = b
	e.n++
	for e.n > 0 && utf8.FullRune(e.pending[:e.n]) {
		r, size := utf8.DecodeRune(e.pending[:e.n])
		copy(e.pending[:], e.pending[size:e.n])
		e.n -= size
		if err := e.emit(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush forwards an incomplete trailing sequence as a replacement character.
func (e *Encoding) Flush() error {
	if e.n == 0 {
		return nil
	}
	e.n = 0
	return e.emit(utf8.RuneError)
}

func (e *Encoding) emit(r rune) error {
	var src [utf8.UTFMax]byte
	in := utf8.AppendRune(src[:0], r)
	// The transformer keeps its state between characters, so stateful
	// encodings such as UTF-16 with a byte order mark stay consistent.
	nDst, _, err := e.encoder.Transform(e.out[:], in, false)
	if err != nil {
		return fmt.Errorf("encode %U: %w", r, err)
	}
	for _, c := range e.out[:nDst] {
		if err := e.next.PutByte(c); err != nil {
			return err
		}
	}
	return nil
}
