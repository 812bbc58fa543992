package printstream

import (
	"fmt"
	"math"

	"github.com/mikey-austin/simplert/pkg/jfmt"
)

// Kind tags the static type carried by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindChar
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindObject
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "boolean",
	KindChar:    "char",
	KindByte:    "byte",
	KindShort:   "short",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindString:  "string",
	KindObject:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is an immutable tagged union over the printable types. The zero
// Value is invalid and prints nothing.
type Value struct {
	kind Kind
	bits uint64
	str  string
	obj  fmt.Stringer
}

// Bool wraps a boolean.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.bits = 1
	}
	return v
}

// Char wraps a character.
func Char(c rune) Value { return Value{kind: KindChar, bits: uint64(uint32(c))} }

// Byte wraps a signed 8-bit integer.
func Byte(n int8) Value { return Value{kind: KindByte, bits: uint64(int64(n))} }

// Short wraps a signed 16-bit integer.
func Short(n int16) Value { return Value{kind: KindShort, bits: uint64(int64(n))} }

// Int wraps a signed 32-bit integer.
func Int(n int32) Value { return Value{kind: KindInt, bits: uint64(int64(n))} }

// Long wraps a signed 64-bit integer.
func Long(n int64) Value { return Value{kind: KindLong, bits: uint64(n)} }

// Float wraps a float32, keeping its exact bit pattern.
func Float(f float32) Value { return Value{kind: KindFloat, bits: uint64(math.Float32bits(f))} }

// Double wraps a float64, keeping its exact bit pattern.
func Double(f float64) Value { return Value{kind: KindDouble, bits: math.Float64bits(f)} }

// String wraps text.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Object wraps anything with a text representation. A nil o, or a nil
// pointer, is the null reference.
func Object(o fmt.Stringer) Value { return Value{kind: KindObject, obj: o} }

// Null is the null object reference.
func Null() Value { return Value{kind: KindObject} }

// Kind reports the tag.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload.
func (v Value) AsBool() bool { return v.bits != 0 }

// AsChar returns the character payload.
func (v Value) AsChar() rune { return rune(uint32(v.bits)) }

// AsLong returns any integral payload sign-extended to 64 bits.
func (v Value) AsLong() int64 { return int64(v.bits) }

// AsFloat returns the float32 payload.
func (v Value) AsFloat() float32 { return math.Float32frombits(uint32(v.bits)) }

// AsDouble returns the float64 payload.
func (v Value) AsDouble() float64 { return math.Float64frombits(v.bits) }

// AsString returns the text payload.
func (v Value) AsString() string { return v.str }

// AsObject returns the object payload, nil for the null reference.
func (v Value) AsObject() fmt.Stringer { return v.obj }

// String renders the canonical text of v.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return jfmt.FormatBool(v.AsBool())
	case KindChar:
		return jfmt.FormatChar(v.AsChar())
	case KindByte, KindShort, KindInt, KindLong:
		return jfmt.FormatInt(v.AsLong())
	case KindFloat:
		return jfmt.FormatFloat32(v.AsFloat())
	case KindDouble:
		return jfmt.FormatFloat64(v.AsDouble())
	case KindString:
		return v.str
	case KindObject:
		if isNull(v.obj) {
			return jfmt.Null
		}
		return v.obj.String()
	default:
		return ""
	}
}

// Print emits v through the entry point matching its tag.
func (p *PrintStream) Print(v Value) error {
	switch v.kind {
	case KindBool:
		return p.PrintBool(v.AsBool())
	case KindChar:
		return p.PrintChar(v.AsChar())
	case KindByte:
		return p.PrintByte(int8(v.AsLong()))
	case KindShort:
		return p.PrintShort(int16(v.AsLong()))
	case KindInt:
		return p.PrintInt(int32(v.AsLong()))
	case KindLong:
		return p.PrintLong(v.AsLong())
	case KindFloat:
		return p.PrintFloat(v.AsFloat())
	case KindDouble:
		return p.PrintDouble(v.AsDouble())
	case KindString:
		return p.PrintString(v.str)
	case KindObject:
		return p.PrintObject(v.obj)
	default:
		return nil
	}
}

// PrintlnValue is Print followed by Println.
func (p *PrintStream) PrintlnValue(v Value) error {
	if err := p.Print(v); err != nil {
		return err
	}
	return p.Println()
}
