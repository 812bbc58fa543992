package rtproto

import (
	"errors"
	"math"
	"testing"

	"github.com/mikey-austin/simplert/pkg/printstream"
)

func TestWireValueDecode(t *testing.T) {
	tests := []struct {
		in   WireValue
		kind printstream.Kind
		want string
	}{
		{WireValue{Type: "boolean", Value: "true"}, printstream.KindBool, "true"},
		{WireValue{Type: "char", Value: "x"}, printstream.KindChar, "x"},
		{WireValue{Type: "char", Bits: "0x20ac"}, printstream.KindChar, "€"},
		{WireValue{Type: "byte", Value: "-128"}, printstream.KindByte, "-128"},
		{WireValue{Type: "short", Value: "0x7fff"}, printstream.KindShort, "32767"},
		{WireValue{Type: "int", Value: "-2147483648"}, printstream.KindInt, "-2147483648"},
		{WireValue{Type: "long", Value: "-9223372036854775808"}, printstream.KindLong, "-9223372036854775808"},
		{WireValue{Type: "float", Value: "37.2"}, printstream.KindFloat, "37.2"},
		{WireValue{Type: "float", Bits: "0x4214cccd"}, printstream.KindFloat, "37.2"},
		{WireValue{Type: "double", Bits: "0x7ff8000000000000"}, printstream.KindDouble, "NaN"},
		{WireValue{Type: "double", Bits: "0x8000000000000000"}, printstream.KindDouble, "-0.0"},
		{WireValue{Type: "Double", Value: "1e7"}, printstream.KindDouble, "1.0E7"},
		{WireValue{Type: "string", Value: " spaced "}, printstream.KindString, " spaced "},
		{WireValue{Type: "object", Value: "Point(1, 2)"}, printstream.KindObject, "Point(1, 2)"},
		{WireValue{Type: "null"}, printstream.KindObject, "null"},
	}
	for _, test := range tests {
		v, err := test.in.Decode()
		if err != nil {
			t.Fatalf("decode %+v: %v", test.in, err)
		}
		if v.Kind() != test.kind {
			t.Fatalf("decode %+v: kind %s want %s", test.in, v.Kind(), test.kind)
		}
		if v.String() != test.want {
			t.Fatalf("decode %+v: got %q want %q", test.in, v.String(), test.want)
		}
	}
}

func TestWireValueBitsWin(t *testing.T) {
	v, err := WireValue{Type: "double", Value: "1.5", Bits: "0x3ff0000000000000"}.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.AsDouble() != 1 {
		t.Fatalf("expected bits to win, got %v", v.AsDouble())
	}
}

func TestWireValueKeepsNaNPayload(t *testing.T) {
	v, err := WireValue{Type: "double", Bits: "0x7ff0000000000001"}.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if math.Float64bits(v.AsDouble()) != 0x7ff0000000000001 {
		t.Fatalf("payload lost")
	}
}

func TestWireValueDecodeErrors(t *testing.T) {
	bad := []WireValue{
		{Type: "byte", Value: "128"},
		{Type: "int", Value: "2147483648"},
		{Type: "char", Value: "ab"},
		{Type: "boolean", Value: "yes"},
		{Type: "float", Bits: "0x100000000"},
		{Type: "double", Value: "one"},
	}
	for _, w := range bad {
		if _, err := w.Decode(); err == nil {
			t.Fatalf("expected error for %+v", w)
		}
	}
	if _, err := (WireValue{Type: "decimal"}).Decode(); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
