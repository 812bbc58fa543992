package fixture

import (
	"bytes"
	"fmt"

	"github.com/mikey-austin/simplert/internal/adapters/sink"
	"github.com/mikey-austin/simplert/pkg/printstream"
)

// Result is the outcome of one case.
type Result struct {
	Suite  string `json:"suite"`
	Case   string `json:"case"`
	Passed bool   `json:"passed"`
	Got    string `json:"got,omitempty"`
	Want   string `json:"want,omitempty"`
	// Offset is the first differing byte, or -1 when the outputs match.
	Offset int    `json:"offset"`
	Err    string `json:"error,omitempty"`
}

// Report collects results across suites.
type Report struct {
	Results []Result `json:"results"`
}

// Failed counts failing cases.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// Passed counts passing cases.
func (r Report) Passed() int {
	return len(r.Results) - r.Failed()
}

// Merge appends other's results.
func (r *Report) Merge(other Report) {
	r.Results = append(r.Results, other.Results...)
}

// Run executes every case of suite against a fresh in-memory sink.
func Run(suite Suite) Report {
	report := Report{Results: make([]Result, 0, len(suite.Cases))}
	for _, c := range suite.Cases {
		report.Results = append(report.Results, runCase(suite.Name, c))
	}
	return report
}

func runCase(suiteName string, c Case) Result {
	res := Result{Suite: suiteName, Case: c.Name, Offset: -1, Want: string(c.want)}

	got, err := Replay(c)
	res.Got = string(got)
	if err != nil {
		res.Err = err.Error()
		res.Offset = FirstDiff(got, c.want)
		return res
	}
	res.Offset = FirstDiff(got, c.want)
	res.Passed = res.Offset < 0
	return res
}

// Replay performs the calls of c and returns the bytes that reached the
// sink, including any produced before a failing call.
func Replay(c Case) ([]byte, error) {
	rec := &sink.Recorder{}
	out, err := sink.WithEncoding(rec, c.Encoding)
	if err != nil {
		return nil, err
	}
	p := printstream.New(out)
	for i, call := range c.Calls {
		if err := apply(p, call); err != nil {
			return rec.Bytes(), fmt.Errorf("call %d: %w", i+1, err)
		}
	}
	if enc, ok := out.(*sink.Encoding); ok {
		if err := enc.Flush(); err != nil {
			return rec.Bytes(), err
		}
	}
	return rec.Bytes(), nil
}

func apply(p *printstream.PrintStream, call Call) error {
	if call.Op == OpNewline {
		return p.Println()
	}
	v, err := call.Decode()
	if err != nil {
		return err
	}
	switch call.Op {
	case OpPrint:
		return p.Print(v)
	case OpPrintln:
		return p.PrintlnValue(v)
	default:
		return fmt.Errorf("unknown op %q", call.Op)
	}
}

// FirstDiff returns the offset of the first byte where got and want
// differ, or -1 when they are equal.
func FirstDiff(got, want []byte) int {
	if bytes.Equal(got, want) {
		return -1
	}
	n := min(len(got), len(want))
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			return i
		}
	}
	return n
}
