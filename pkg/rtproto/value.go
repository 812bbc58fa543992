package rtproto

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mikey-austin/simplert/pkg/printstream"
)

// ErrUnknownType is returned for a wire type with no printstream kind.
var ErrUnknownType = errors.New("unknown value type")

// WireValue is the textual transport form of a printstream.Value. Float
// and double values travel either as decimal text or, exactly, as IEEE-754
// bits in hex; Bits wins when both are set.
type WireValue struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Bits  string `json:"bits,omitempty" yaml:"bits,omitempty"`
}

// TextObject is an object whose text representation travelled on the wire.
type TextObject string

func (o TextObject) String() string { return string(o) }

// Decode converts w into a Value.
func (w WireValue) Decode() (printstream.Value, error) {
	typ := strings.ToLower(strings.TrimSpace(w.Type))
	v, err := w.decode(typ)
	if err != nil {
		return printstream.Value{}, fmt.Errorf("decode %s: %w", typ, err)
	}
	return v, nil
}

func (w WireValue) decode(typ string) (printstream.Value, error) {
	switch typ {
	case "boolean", "bool":
		b, err := strconv.ParseBool(strings.TrimSpace(w.Value))
		if err != nil {
			return printstream.Value{}, err
		}
		return printstream.Bool(b), nil
	case "char":
		if w.Bits != "" {
			n, err := strconv.ParseUint(w.Bits, 0, 32)
			if err != nil {
				return printstream.Value{}, err
			}
			return printstream.Char(rune(n)), nil
		}
		if utf8.RuneCountInString(w.Value) != 1 {
			return printstream.Value{}, errors.New("char value must be a single character")
		}
		r, _ := utf8.DecodeRuneInString(w.Value)
		return printstream.Char(r), nil
	case "byte":
		n, err := strconv.ParseInt(strings.TrimSpace(w.Value), 0, 8)
		if err != nil {
			return printstream.Value{}, err
		}
		return printstream.Byte(int8(n)), nil
	case "short":
		n, err := strconv.ParseInt(strings.TrimSpace(w.Value), 0, 16)
		if err != nil {
			return printstream.Value{}, err
		}
		return printstream.Short(int16(n)), nil
	case "int":
		n, err := strconv.ParseInt(strings.TrimSpace(w.Value), 0, 32)
		if err != nil {
			return printstream.Value{}, err
		}
		return printstream.Int(int32(n)), nil
	case "long":
		n, err := strconv.ParseInt(strings.TrimSpace(w.Value), 0, 64)
		if err != nil {
			return printstream.Value{}, err
		}
		return printstream.Long(n), nil
	case "float":
		if w.Bits != "" {
			bits, err := strconv.ParseUint(w.Bits, 0, 32)
			if err != nil {
				return printstream.Value{}, err
			}
			return printstream.Float(math.Float32frombits(uint32(bits))), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(w.Value), 32)
		if err != nil {
			return printstream.Value{}, err
		}
		return printstream.Float(float32(f)), nil
	case "double":
		if w.Bits != "" {
			bits, err := strconv.ParseUint(w.Bits, 0, 64)
			if err != nil {
				return printstream.Value{}, err
			}
			return printstream.Double(math.Float64frombits(bits)), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(w.Value), 64)
		if err != nil {
			return printstream.Value{}, err
		}
		return printstream.Double(f), nil
	case "string":
		return printstream.String(w.Value), nil
	case "object":
		return printstream.Object(TextObject(w.Value)), nil
	case "null":
		return printstream.Null(), nil
	default:
		return printstream.Value{}, ErrUnknownType
	}
}
