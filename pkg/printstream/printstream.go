// Package printstream is the console dispatch surface: one print/println
// pair per primitive type, text and objects, written byte by byte through
// an injected Sink.
//
// A PrintStream holds no buffer and takes no locks. Callers sharing one
// Sink across goroutines serialize access themselves.
package printstream

import (
	"fmt"
	"reflect"

	"github.com/mikey-austin/simplert/pkg/jfmt"
)

// LineTerminator ends every println.
const LineTerminator byte = '\n'

// Sink accepts one byte at a time. An error aborts the current call and is
// returned to the caller unchanged.
type Sink interface {
	PutByte(b byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(b byte) error

// PutByte calls f(b).
func (f SinkFunc) PutByte(b byte) error {
	return f(b)
}

// PrintStream formats values and streams them to a Sink.
type PrintStream struct {
	sink Sink
}

// New returns a PrintStream writing to sink.
func New(sink Sink) *PrintStream {
	return &PrintStream{sink: sink}
}

// Println emits the line terminator.
func (p *PrintStream) Println() error {
	return p.sink.PutByte(LineTerminator)
}

// PrintBool emits true or false.
func (p *PrintStream) PrintBool(b bool) error {
	return p.PrintString(jfmt.FormatBool(b))
}

// PrintChar emits the UTF-8 encoding of c.
func (p *PrintStream) PrintChar(c rune) error {
	var buf [4]byte
	return p.emit(jfmt.AppendChar(buf[:0], c))
}

// PrintByte emits a signed 8-bit integer.
func (p *PrintStream) PrintByte(n int8) error {
	return p.PrintLong(int64(n))
}

// PrintShort emits a signed 16-bit integer.
func (p *PrintStream) PrintShort(n int16) error {
	return p.PrintLong(int64(n))
}

// PrintInt emits a signed 32-bit integer.
func (p *PrintStream) PrintInt(n int32) error {
	return p.PrintLong(int64(n))
}

// PrintLong emits a signed 64-bit integer.
func (p *PrintStream) PrintLong(n int64) error {
	var buf [24]byte
	return p.emit(jfmt.AppendInt(buf[:0], n))
}

// PrintFloat emits the shortest round-trip form of a float32.
func (p *PrintStream) PrintFloat(f float32) error {
	var buf [32]byte
	return p.emit(jfmt.AppendFloat32(buf[:0], f))
}

// PrintDouble emits the shortest round-trip form of a float64.
func (p *PrintStream) PrintDouble(f float64) error {
	var buf [32]byte
	return p.emit(jfmt.AppendFloat64(buf[:0], f))
}

// PrintString emits s unchanged, one byte at a time.
func (p *PrintStream) PrintString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := p.sink.PutByte(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// PrintObject emits o.String(), or null when o is nil or holds a nil
// pointer.
func (p *PrintStream) PrintObject(o fmt.Stringer) error {
	if isNull(o) {
		return p.PrintString(jfmt.Null)
	}
	return p.PrintString(o.String())
}

// PrintlnBool is PrintBool followed by Println.
func (p *PrintStream) PrintlnBool(b bool) error {
	if err := p.PrintBool(b); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnChar is PrintChar followed by Println.
func (p *PrintStream) PrintlnChar(c rune) error {
	if err := p.PrintChar(c); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnByte is PrintByte followed by Println.
func (p *PrintStream) PrintlnByte(n int8) error {
	if err := p.PrintByte(n); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnShort is PrintShort followed by Println.
func (p *PrintStream) PrintlnShort(n int16) error {
	if err := p.PrintShort(n); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnInt is PrintInt followed by Println.
func (p *PrintStream) PrintlnInt(n int32) error {
	if err := p.PrintInt(n); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnLong is PrintLong followed by Println.
func (p *PrintStream) PrintlnLong(n int64) error {
	if err := p.PrintLong(n); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnFloat is PrintFloat followed by Println.
func (p *PrintStream) PrintlnFloat(f float32) error {
	if err := p.PrintFloat(f); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnDouble is PrintDouble followed by Println.
func (p *PrintStream) PrintlnDouble(f float64) error {
	if err := p.PrintDouble(f); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnString is PrintString followed by Println.
func (p *PrintStream) PrintlnString(s string) error {
	if err := p.PrintString(s); err != nil {
		return err
	}
	return p.Println()
}

// PrintlnObject is PrintObject followed by Println.
func (p *PrintStream) PrintlnObject(o fmt.Stringer) error {
	if err := p.PrintObject(o); err != nil {
		return err
	}
	return p.Println()
}

// isNull reports whether o is the null reference: a nil interface or a
// nil pointer behind one.
func isNull(o fmt.Stringer) bool {
	if o == nil {
		return true
	}
	v := reflect.ValueOf(o)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (p *PrintStream) emit(b []byte) error {
	for _, c := range b {
		if err := p.sink.PutByte(c); err != nil {
			return err
		}
	}
	return nil
}
