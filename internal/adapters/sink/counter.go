package sink

import "github.com/mikey-austin/simplert/pkg/printstream"

// Counter forwards bytes to another Sink and counts the ones it accepted.
type Counter struct {
	next printstream.Sink
	n    int
}

var _ printstream.Sink = (*Counter)(nil)

// NewCounter wraps next.
func NewCounter(next printstream.Sink) *Counter {
	return &Counter{next: next}
}

// PutByte forwards b.
func (c *Counter) PutByte(b byte) error {
	if err := c.next.PutByte(b); err != nil {
		return err
	}
	c.n++
	return nil
}

// Count returns the number of forwarded bytes.
func (c *Counter) Count() int {
	return c.n
}

// Reset zeroes the count.
func (c *Counter) Reset() {
	c.n = 0
}
