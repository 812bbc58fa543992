package sink

import (
	"sync"

	"github.com/mikey-austin/simplert/pkg/printstream"
)

// Recorder keeps every byte it receives in memory.
type Recorder struct {
	mu    sync.Mutex
	out   []byte
	calls int

	failAfter int
	failErr   error
}

var _ printstream.Sink = (*Recorder)(nil)

// FailAfter makes the recorder accept n more bytes and then return err.
func (r *Recorder) FailAfter(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAfter = r.calls + n
	r.failErr = err
}

// PutByte records b.
func (r *Recorder) PutByte(b byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil && r.calls >= r.failAfter {
		return r.failErr
	}
	r.calls++
	r.out = append(r.out, b)
	return nil
}

// Bytes returns a copy of the recorded bytes.
func (r *Recorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.out...)
}

// String returns the recorded bytes as text.
func (r *Recorder) String() string {
	return string(r.Bytes())
}

// Calls returns the number of accepted PutByte calls.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Reset drops recorded output and any pending failure.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = r.out[:0]
	r.calls = 0
	r.failAfter = 0
	r.failErr = nil
}
